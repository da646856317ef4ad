package providers

import (
	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/pkg/config"
)

// NewRegistry construye el mapa de adaptadores por proveedor a partir de la
// configuración. El caso de uso de KPIs resuelve cada conexión contra este
// mapa; un proveedor desconocido simplemente no aparece.
func NewRegistry(cfg config.ProvidersConfig) map[string]ports.ProviderAdapter {
	return map[string]ports.ProviderAdapter{
		entity.ProviderShopify:     NewShopifyAdapter(cfg.ShopifyAPIVersion),
		entity.ProviderStripe:      NewStripeAdapter(),
		entity.ProviderSquare:      NewSquareAdapter(cfg.SquareEnv),
		entity.ProviderPayPal:      NewPayPalAdapter(cfg.PayPalEnv),
		entity.ProviderToast:       NewToastAdapter(cfg.ToastBaseURL),
		entity.ProviderWooCommerce: NewWooCommerceAdapter(),
		entity.ProviderPlaid:       NewPlaidAdapter(cfg.PlaidEnv),
	}
}

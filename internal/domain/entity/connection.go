package entity

import "time"

// Proveedores de comercio soportados.
const (
	ProviderShopify     = "shopify"
	ProviderStripe      = "stripe"
	ProviderSquare      = "square"
	ProviderPayPal      = "paypal"
	ProviderToast       = "toast"
	ProviderWooCommerce = "woocommerce"
	ProviderPlaid       = "plaid"
)

// KnownProviders conjunto cerrado de adaptadores disponibles.
var KnownProviders = []string{
	ProviderShopify, ProviderStripe, ProviderSquare, ProviderPayPal,
	ProviderToast, ProviderWooCommerce, ProviderPlaid,
}

// IsKnownProvider indica si el nombre corresponde a un adaptador soportado.
func IsKnownProvider(name string) bool {
	for _, p := range KnownProviders {
		if p == name {
			return true
		}
	}
	return false
}

// Entornos de conexión para proveedores que distinguen sandbox de producción.
const (
	EnvProduction = "production"
	EnvSandbox    = "sandbox"
)

// Connection credencial de un comercio hacia un proveedor. El intercambio
// OAuth ocurre fuera de este servicio; aquí solo se almacena el material
// resultante y los identificadores que cada adaptador necesita.
type Connection struct {
	ID          string
	MerchantID  string
	Provider    string // uno de KnownProviders
	AccessToken string // token opaco o API key
	APISecret   string // segundo factor cuando aplica (WooCommerce consumer secret, Plaid secret)
	ShopDomain  string // Shopify: mitienda.myshopify.com; WooCommerce: URL base de la tienda
	ExternalID  string // Square location, Toast restaurant GUID, Plaid client_id según proveedor
	Environment string // "production" | "sandbox" (proveedores que lo distinguen)
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

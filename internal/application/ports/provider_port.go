package ports

import (
	"context"
	"time"

	"github.com/tu-usuario/fondea-api/internal/domain/entity"
)

// DateRange intervalo semiabierto [Start, End) en UTC para el fetch.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ProviderAdapter puerto de salida hacia la API de un proveedor de comercio.
// Cada adaptador traduce los registros nativos del proveedor a los canónicos,
// aplicando paginación de forma transparente (el caller nunca ve páginas).
//
// Los tres fetch son independientes y sin estado mutable compartido: el use
// case puede lanzarlos en goroutines paralelas. Fallas no recuperables se
// reportan como *domain.ProviderFetchError; la ausencia de datos opcionales
// (clientes) degrada a lista vacía, nunca tumba el fetch completo.
type ProviderAdapter interface {
	// Provider nombre canónico ("shopify", "stripe", ...).
	Provider() string

	// FetchOrders descarga las ventas del rango y las normaliza.
	FetchOrders(ctx context.Context, conn *entity.Connection, rng DateRange) ([]entity.NormalizedOrder, error)

	// FetchRefunds descarga reembolsos del rango. Para proveedores que los
	// anidan en la orden, el adaptador los aplana; para los que exponen
	// endpoint propio, los consulta aparte. No se garantiza que toda orden
	// descargada tenga sus reembolsos (gap documentado por rate limits).
	FetchRefunds(ctx context.Context, conn *entity.Connection, rng DateRange) ([]entity.NormalizedRefund, error)

	// FetchCustomers descarga clientes cuando el proveedor los expone.
	// Proveedores sin noción de cliente devuelven lista vacía sin error.
	FetchCustomers(ctx context.Context, conn *entity.Connection, rng DateRange) ([]entity.NormalizedCustomer, error)
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Registros canónicos: la representación uniforme de ventas, reembolsos y
// clientes que todo adaptador de proveedor produce y que el motor KPI consume.
// Los instantes se guardan siempre en UTC; el timezone se aplica únicamente
// al momento de agrupar por día, nunca muta el instante almacenado.

// NormalizedOrder venta canónica.
type NormalizedOrder struct {
	ID             string          // identificador único dentro del proveedor
	CreatedAt      time.Time       // instante UTC de la venta
	GrossAmount    decimal.Decimal // unidad mayor de la moneda (pesos, no centavos)
	Currency       string          // código ISO 4217
	DiscountAmount decimal.Decimal // >= 0; cero si el proveedor no expone el campo
	IsCancelled    bool            // cancelada/anulada: excluida de ventas netas
	CustomerID     string          // vacío cuando el proveedor no expone identidad del cliente
}

// NormalizedRefund reembolso canónico.
// OrderID puede no resolver a una NormalizedOrder descargada si la venta
// original cae fuera de la ventana de fetch; eso no es un error.
type NormalizedRefund struct {
	ID        string
	OrderID   string
	CreatedAt time.Time       // instante UTC de emisión del reembolso, no de la venta
	Amount    decimal.Decimal // >= 0, unidad mayor
}

// NormalizedCustomer cliente canónico (entrada opcional; mejora la precisión
// de nuevos-vs-recurrentes cuando las órdenes no traen CustomerID).
type NormalizedCustomer struct {
	ID          string
	CreatedAt   time.Time // creación de la cuenta/registro del cliente
	OrdersCount int       // agregado de vida reportado por el proveedor
	TotalSpent  decimal.Decimal
}

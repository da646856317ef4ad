package entity

import "github.com/shopspring/decimal"

// Señal usada para clasificar clientes nuevos vs recurrentes.
const (
	CustomerSignalOrderIDs        = "order_ids"        // órdenes con CustomerID (autoritativo)
	CustomerSignalCustomerRecords = "customer_records" // fallback: lista de NormalizedCustomer
	CustomerSignalNone            = "none"             // sin señal: ambos contadores en 0
)

// DailyBucket ventas netas y número de órdenes de un día calendario en el
// timezone solicitado.
type DailyBucket struct {
	Date       string          `json:"date"` // YYYY-MM-DD
	NetSales   decimal.Decimal `json:"net_sales"`
	OrderCount int             `json:"order_count"`
}

// KPIGrowth variación porcentual contra la ventana anterior.
// Política documentada: base cero => 0, nunca Inf/NaN.
type KPIGrowth struct {
	NetSalesGrowthPct   decimal.Decimal `json:"net_sales_growth_pct"`
	OrderCountGrowthPct decimal.Decimal `json:"order_count_growth_pct"`
}

// KPIResult resultado inmutable de una invocación del motor KPI. Es el
// contrato que consumen el scoring crediticio y el attestation builder:
// se serializa tal cual a JSON en las respuestas HTTP y en el payload firmado.
//
// Invariante central: NetSales = GrossSales - TotalDiscounts - TotalRefunds.
// Ningún componente calcula ventas netas por otra fórmula.
type KPIResult struct {
	WindowDays int    `json:"window_days"` // 30 | 90
	Currency   string `json:"currency"`    // moneda dominante del dataset

	GrossSales     decimal.Decimal `json:"gross_sales"`
	TotalDiscounts decimal.Decimal `json:"total_discounts"`
	TotalRefunds   decimal.Decimal `json:"total_refunds"`
	NetSales       decimal.Decimal `json:"net_sales"`

	OrderCount  int `json:"order_count"`
	RefundCount int `json:"refund_count"`

	AverageOrderValue decimal.Decimal `json:"average_order_value"` // 0 si OrderCount == 0
	RefundRate        decimal.Decimal `json:"refund_rate"`         // [0,1]; 0 si GrossSales == 0

	NewCustomerCount       int    `json:"new_customer_count"`
	ReturningCustomerCount int    `json:"returning_customer_count"`
	CustomerSignal         string `json:"customer_signal"` // order_ids | customer_records | none

	// MixedCurrency true cuando las órdenes mezclan monedas: la agregación
	// suma sin convertir (limitación conocida, se señala en vez de corregir).
	MixedCurrency bool `json:"mixed_currency"`

	// Growth presente solo si se solicitó ventana anterior.
	Growth *KPIGrowth `json:"growth,omitempty"`

	// DailyBuckets cubre cada día calendario de la ventana en el timezone
	// solicitado, incluidos días sin actividad. Contiguos, sin duplicados,
	// ascendentes por fecha. No es una descomposición exacta de los totales:
	// cuando el inicio de la ventana cae a media jornada, una orden cuya
	// fecha local queda después del último bucket emitido cuenta en los
	// agregados pero no aparece en ningún bucket.
	DailyBuckets []DailyBucket `json:"daily_buckets"`
}

package kpi_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/fondea-api/internal/domain"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/internal/domain/kpi"
)

// Instante fijo para que todos los tests sean reproducibles.
var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// order construye una orden canónica daysAgo días antes de testNow.
func order(id string, daysAgo int, gross, discount string, cancelled bool, customerID string) entity.NormalizedOrder {
	return entity.NormalizedOrder{
		ID:             id,
		CreatedAt:      testNow.AddDate(0, 0, -daysAgo),
		GrossAmount:    dec(gross),
		Currency:       "USD",
		DiscountAmount: dec(discount),
		IsCancelled:    cancelled,
		CustomerID:     customerID,
	}
}

func refund(id, orderID string, daysAgo int, amount string) entity.NormalizedRefund {
	return entity.NormalizedRefund{
		ID:        id,
		OrderID:   orderID,
		CreatedAt: testNow.AddDate(0, 0, -daysAgo),
		Amount:    dec(amount),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario de agregación simple: A(100, desc 10), B(200), C(50, cancelada),
// un reembolso de 30 contra A. La cancelada no aporta al bruto ni al conteo.
// ──────────────────────────────────────────────────────────────────────────────

func TestCompute_AgregacionSimple(t *testing.T) {
	res, err := kpi.Compute(kpi.Input{
		Orders: []entity.NormalizedOrder{
			order("A", 5, "100", "10", false, ""),
			order("B", 10, "200", "0", false, ""),
			order("C", 15, "50", "0", true, ""),
		},
		Refunds:    []entity.NormalizedRefund{refund("R1", "A", 4, "30")},
		Timezone:   "UTC",
		WindowDays: 30,
		Now:        testNow,
	})
	require.NoError(t, err)

	assert.True(t, res.GrossSales.Equal(dec("300")), "bruto = 100 + 200, cancelada excluida: %s", res.GrossSales)
	assert.True(t, res.TotalDiscounts.Equal(dec("10")))
	assert.True(t, res.TotalRefunds.Equal(dec("30")))
	assert.True(t, res.NetSales.Equal(dec("260")), "neto = 300 - 10 - 30")
	assert.Equal(t, 2, res.OrderCount)
	assert.Equal(t, 1, res.RefundCount)
	assert.True(t, res.AverageOrderValue.Equal(dec("130")), "ticket promedio = 260 / 2")
	assert.Equal(t, "USD", res.Currency)
	assert.False(t, res.MixedCurrency)
	assert.Equal(t, entity.CustomerSignalNone, res.CustomerSignal)
	assert.Equal(t, 0, res.NewCustomerCount)
	assert.Equal(t, 0, res.ReturningCustomerCount)
}

// TestCompute_IdentidadVentasNetas verifica NetSales == Gross - Discounts - Refunds
// sobre un dataset con montos fraccionales.
func TestCompute_IdentidadVentasNetas(t *testing.T) {
	res, err := kpi.Compute(kpi.Input{
		Orders: []entity.NormalizedOrder{
			order("A", 1, "19.99", "1.37", false, ""),
			order("B", 2, "250.05", "0.01", false, ""),
			order("C", 3, "7.77", "0", false, ""),
		},
		Refunds: []entity.NormalizedRefund{
			refund("R1", "A", 1, "3.33"),
			refund("R2", "X-fuera-del-fetch", 2, "0.67"), // orden no descargada: no falla
		},
		Timezone:   "UTC",
		WindowDays: 30,
		Now:        testNow,
	})
	require.NoError(t, err)

	esperado := res.GrossSales.Sub(res.TotalDiscounts).Sub(res.TotalRefunds)
	assert.True(t, res.NetSales.Equal(esperado), "neto %s != %s", res.NetSales, esperado)
}

// ──────────────────────────────────────────────────────────────────────────────
// Seguridad ante ceros: sin órdenes, sin bruto, sin base anterior. Nada
// divide por cero ni produce Inf/NaN.
// ──────────────────────────────────────────────────────────────────────────────

func TestCompute_DatasetVacio(t *testing.T) {
	res, err := kpi.Compute(kpi.Input{
		Timezone:        "UTC",
		WindowDays:      30,
		PriorWindowDays: 30,
		Now:             testNow,
	})
	require.NoError(t, err, "la escasez de datos nunca es error")

	assert.True(t, res.AverageOrderValue.IsZero(), "AOV = 0 con cero órdenes")
	assert.True(t, res.RefundRate.IsZero(), "tasa de reembolso = 0 con bruto cero")
	require.NotNil(t, res.Growth)
	assert.True(t, res.Growth.NetSalesGrowthPct.IsZero())
	assert.True(t, res.Growth.OrderCountGrowthPct.IsZero())
	assert.Equal(t, "USD", res.Currency, "moneda fallback con dataset vacío")
	assert.Len(t, res.DailyBuckets, 30, "los buckets cubren la ventana aun sin actividad")
}

func TestCompute_CrecimientoConBaseCero(t *testing.T) {
	// Ventana actual con ventas, ventana anterior vacía: crecimiento = 0
	// por política, no Inf ni NaN.
	res, err := kpi.Compute(kpi.Input{
		Orders:          []entity.NormalizedOrder{order("A", 5, "500", "0", false, "")},
		Timezone:        "UTC",
		WindowDays:      30,
		PriorWindowDays: 30,
		Now:             testNow,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Growth)
	assert.True(t, res.Growth.NetSalesGrowthPct.IsZero(),
		"base cero debe dar 0, se obtuvo %s", res.Growth.NetSalesGrowthPct)
}

func TestCompute_Crecimiento(t *testing.T) {
	res, err := kpi.Compute(kpi.Input{
		Orders: []entity.NormalizedOrder{
			order("A", 5, "300", "0", false, ""),  // ventana actual
			order("B", 45, "200", "0", false, ""), // ventana anterior
			order("C", 40, "100", "0", false, ""), // ventana anterior
		},
		Timezone:        "UTC",
		WindowDays:      30,
		PriorWindowDays: 30,
		Now:             testNow,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Growth)
	// neto actual 300, anterior 300 -> 0%; órdenes 1 vs 2 -> -50%
	assert.True(t, res.Growth.NetSalesGrowthPct.IsZero())
	assert.True(t, res.Growth.OrderCountGrowthPct.Equal(dec("-50")),
		"órdenes 1 vs 2 = -50%%, se obtuvo %s", res.Growth.OrderCountGrowthPct)
}

// ──────────────────────────────────────────────────────────────────────────────
// Frontera de ventana: intervalo semiabierto [start, end).
// ──────────────────────────────────────────────────────────────────────────────

func TestCompute_FronteraSemiabierta(t *testing.T) {
	windowStart := testNow.AddDate(0, 0, -30)

	enStart := entity.NormalizedOrder{ID: "start", CreatedAt: windowStart, GrossAmount: dec("10"), Currency: "USD"}
	enEnd := entity.NormalizedOrder{ID: "end", CreatedAt: testNow, GrossAmount: dec("20"), Currency: "USD"}

	res, err := kpi.Compute(kpi.Input{
		Orders:     []entity.NormalizedOrder{enStart, enEnd},
		Timezone:   "UTC",
		WindowDays: 30,
		Now:        testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.OrderCount, "createdAt == windowStart entra; == windowEnd queda fuera")
	assert.True(t, res.GrossSales.Equal(dec("10")))
}

// TestCompute_Idempotente mismo input (incluido el mismo Now) produce un
// resultado byte-idéntico al serializar.
func TestCompute_Idempotente(t *testing.T) {
	in := kpi.Input{
		Orders: []entity.NormalizedOrder{
			order("A", 3, "99.99", "5", false, "c1"),
			order("B", 8, "10", "0", false, "c2"),
		},
		Refunds:         []entity.NormalizedRefund{refund("R1", "A", 2, "9.99")},
		Timezone:        "America/Bogota",
		WindowDays:      90,
		PriorWindowDays: 90,
		Now:             testNow,
	}

	r1, err1 := kpi.Compute(in)
	r2, err2 := kpi.Compute(in)
	require.NoError(t, err1)
	require.NoError(t, err2)

	j1, err := json.Marshal(r1)
	require.NoError(t, err)
	j2, err := json.Marshal(r2)
	require.NoError(t, err)
	assert.Equal(t, string(j1), string(j2))
}

// ──────────────────────────────────────────────────────────────────────────────
// Buckets diarios: exactamente windowDays entradas, contiguas, sin duplicados,
// en cualquier timezone; días sin actividad presentes con ceros.
// ──────────────────────────────────────────────────────────────────────────────

func TestCompute_BucketsCompletos(t *testing.T) {
	for _, tc := range []struct {
		window int
		tz     string
	}{
		{30, "UTC"},
		{30, "America/Bogota"},
		{90, "Asia/Tokyo"},
		{90, "Australia/Sydney"},
	} {
		res, err := kpi.Compute(kpi.Input{
			Orders:     []entity.NormalizedOrder{order("A", 2, "40", "0", false, "")},
			Timezone:   tc.tz,
			WindowDays: tc.window,
			Now:        testNow,
		})
		require.NoError(t, err, "tz %s", tc.tz)
		require.Len(t, res.DailyBuckets, tc.window, "tz %s", tc.tz)

		for i := 1; i < len(res.DailyBuckets); i++ {
			prev, err := time.ParseInLocation("2006-01-02", res.DailyBuckets[i-1].Date, time.UTC)
			require.NoError(t, err)
			cur, err := time.ParseInLocation("2006-01-02", res.DailyBuckets[i].Date, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, prev.AddDate(0, 0, 1), cur,
				"fechas contiguas y ascendentes en tz %s", tc.tz)
		}
	}
}

func TestCompute_BucketAsignadoEnTimezoneLocal(t *testing.T) {
	// 2026-08-29 23:30 UTC es 2026-08-30 08:30 en Tokio: el bucket debe ser
	// el del día 30, no el del 29.
	o := entity.NormalizedOrder{
		ID:          "A",
		CreatedAt:   time.Date(2026, 8, 29, 23, 30, 0, 0, time.UTC),
		GrossAmount: dec("100"),
		Currency:    "JPY",
	}

	res, err := kpi.Compute(kpi.Input{
		Orders:     []entity.NormalizedOrder{o},
		Timezone:   "Asia/Tokyo",
		WindowDays: 30,
		Now:        testNow,
	})
	require.NoError(t, err)

	var con, sin *entity.DailyBucket
	for i := range res.DailyBuckets {
		switch res.DailyBuckets[i].Date {
		case "2026-08-30":
			con = &res.DailyBuckets[i]
		case "2026-08-29":
			sin = &res.DailyBuckets[i]
		}
	}
	require.NotNil(t, con)
	require.NotNil(t, sin)
	assert.Equal(t, 1, con.OrderCount, "la orden cae en el día local de Tokio")
	assert.Equal(t, 0, sin.OrderCount)
}

func TestCompute_ReembolsoEnSuPropioDia(t *testing.T) {
	// El reembolso se atribuye al día de su emisión, no al de la venta.
	res, err := kpi.Compute(kpi.Input{
		Orders:     []entity.NormalizedOrder{order("A", 10, "100", "0", false, "")},
		Refunds:    []entity.NormalizedRefund{refund("R1", "A", 2, "25")},
		Timezone:   "UTC",
		WindowDays: 30,
		Now:        testNow,
	})
	require.NoError(t, err)

	diaVenta := testNow.AddDate(0, 0, -10).Format("2006-01-02")
	diaReembolso := testNow.AddDate(0, 0, -2).Format("2006-01-02")
	for _, b := range res.DailyBuckets {
		switch b.Date {
		case diaVenta:
			assert.True(t, b.NetSales.Equal(dec("100")))
		case diaReembolso:
			assert.True(t, b.NetSales.Equal(dec("-25")), "reembolso resta en su día: %s", b.NetSales)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Clasificación de clientes: CustomerID por orden autoritativo; lista de
// clientes solo como fallback; sin señal, ceros observables.
// ──────────────────────────────────────────────────────────────────────────────

func TestCompute_ClientesPorOrden(t *testing.T) {
	res, err := kpi.Compute(kpi.Input{
		Orders: []entity.NormalizedOrder{
			order("A", 5, "100", "0", false, "nuevo"),      // primera compra, en ventana
			order("B", 10, "50", "0", false, "viejo"),      // compra en ventana...
			order("C", 200, "70", "0", false, "viejo"),     // ...pero su primera fue hace 200 días
			order("D", 120, "30", "0", false, "inactivo"),  // sin actividad en ventana: no cuenta
		},
		Timezone:   "UTC",
		WindowDays: 30,
		Now:        testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.CustomerSignalOrderIDs, res.CustomerSignal)
	assert.Equal(t, 1, res.NewCustomerCount, "solo 'nuevo' estrena en la ventana")
	assert.Equal(t, 1, res.ReturningCustomerCount, "'viejo' compraba desde antes")
}

func TestCompute_ClientesFallbackRegistros(t *testing.T) {
	// Órdenes sin CustomerID: cae a la lista de NormalizedCustomer, y el
	// resultado es observablemente distinto del caso sin señal.
	customers := []entity.NormalizedCustomer{
		{ID: "c1", CreatedAt: testNow.AddDate(0, 0, -5)},   // creado en ventana -> nuevo
		{ID: "c2", CreatedAt: testNow.AddDate(0, 0, -400)}, // anterior -> recurrente
	}

	conFallback, err := kpi.Compute(kpi.Input{
		Orders:     []entity.NormalizedOrder{order("A", 3, "10", "0", false, "")},
		Customers:  customers,
		Timezone:   "UTC",
		WindowDays: 30,
		Now:        testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CustomerSignalCustomerRecords, conFallback.CustomerSignal)
	assert.Equal(t, 1, conFallback.NewCustomerCount)
	assert.Equal(t, 1, conFallback.ReturningCustomerCount)

	sinSenal, err := kpi.Compute(kpi.Input{
		Orders:     []entity.NormalizedOrder{order("A", 3, "10", "0", false, "")},
		Timezone:   "UTC",
		WindowDays: 30,
		Now:        testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CustomerSignalNone, sinSenal.CustomerSignal)
	assert.NotEqual(t, conFallback.CustomerSignal, sinSenal.CustomerSignal,
		"la degradación sin señal debe distinguirse del fallback con registros")
}

func TestCompute_OrdenConIDTieneProcedencia(t *testing.T) {
	// Si al menos una orden trae CustomerID, la lista de clientes se ignora.
	res, err := kpi.Compute(kpi.Input{
		Orders: []entity.NormalizedOrder{order("A", 3, "10", "0", false, "c9")},
		Customers: []entity.NormalizedCustomer{
			{ID: "x1", CreatedAt: testNow.AddDate(0, 0, -2)},
			{ID: "x2", CreatedAt: testNow.AddDate(0, 0, -2)},
		},
		Timezone:   "UTC",
		WindowDays: 30,
		Now:        testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CustomerSignalOrderIDs, res.CustomerSignal)
	assert.Equal(t, 1, res.NewCustomerCount, "cuenta por IDs de orden, no por registros")
}

// ──────────────────────────────────────────────────────────────────────────────
// Moneda: pluralidad por conteo, empate lo gana la primera en aparecer,
// mezcla señalada sin conversión.
// ──────────────────────────────────────────────────────────────────────────────

func TestCompute_MonedaPluralidad(t *testing.T) {
	orders := []entity.NormalizedOrder{
		order("A", 1, "10", "0", false, ""),
		order("B", 2, "10", "0", false, ""),
		order("C", 3, "10", "0", false, ""),
	}
	orders[0].Currency = "COP"
	orders[1].Currency = "COP"
	orders[2].Currency = "USD"

	res, err := kpi.Compute(kpi.Input{Orders: orders, Timezone: "UTC", WindowDays: 30, Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, "COP", res.Currency)
	assert.True(t, res.MixedCurrency, "mezcla de monedas se señala, no se corrige")
}

func TestCompute_MonedaEmpateGanaLaPrimera(t *testing.T) {
	orders := []entity.NormalizedOrder{
		order("A", 1, "10", "0", false, ""),
		order("B", 2, "10", "0", false, ""),
	}
	orders[0].Currency = "EUR"
	orders[1].Currency = "USD"

	res, err := kpi.Compute(kpi.Input{Orders: orders, Timezone: "UTC", WindowDays: 30, Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, "EUR", res.Currency, "empate 1-1: gana la que aparece primero")
}

func TestCompute_MonedaIgnoraCanceladas(t *testing.T) {
	orders := []entity.NormalizedOrder{
		order("A", 1, "10", "0", true, ""),
		order("B", 2, "10", "0", true, ""),
		order("C", 3, "10", "0", false, ""),
	}
	orders[0].Currency = "COP"
	orders[1].Currency = "COP"
	orders[2].Currency = "USD"

	res, err := kpi.Compute(kpi.Input{Orders: orders, Timezone: "UTC", WindowDays: 30, Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, "USD", res.Currency,
		"las canceladas no votan: la moneda viene de las órdenes que sí venden")
	assert.False(t, res.MixedCurrency, "una sola moneda entre las no canceladas")
	assert.True(t, res.GrossSales.Equal(dec("10")))
}

func TestCompute_MonedaTodasCanceladasCaeAlFallback(t *testing.T) {
	orders := []entity.NormalizedOrder{
		order("A", 1, "10", "0", true, ""),
	}
	orders[0].Currency = "COP"

	res, err := kpi.Compute(kpi.Input{Orders: orders, Timezone: "UTC", WindowDays: 30, Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, "USD", res.Currency, "sin votos válidos se reporta el fallback")
	assert.True(t, res.GrossSales.IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Configuración inválida: único camino de error del motor.
// ──────────────────────────────────────────────────────────────────────────────

func TestCompute_ConfiguracionInvalida(t *testing.T) {
	casos := []struct {
		nombre string
		in     kpi.Input
		campo  string
	}{
		{"ventana no soportada", kpi.Input{Timezone: "UTC", WindowDays: 45}, "window_days"},
		{"ventana anterior no soportada", kpi.Input{Timezone: "UTC", WindowDays: 30, PriorWindowDays: 7}, "prior_window_days"},
		{"timezone vacío", kpi.Input{Timezone: "", WindowDays: 30}, "timezone"},
		{"timezone malformado", kpi.Input{Timezone: "Marte/Olympus", WindowDays: 30}, "timezone"},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			c.in.Now = testNow
			_, err := kpi.Compute(c.in)
			require.Error(t, err)

			var cfgErr *domain.InvalidKPIConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, c.campo, cfgErr.Field)
		})
	}
}

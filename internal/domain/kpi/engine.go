// Package kpi contiene el motor de cálculo de indicadores de desempeño
// comercial. Es un servicio de dominio puro: sin I/O, sin estado entre
// invocaciones, determinista para un mismo input (incluido el mismo Now).
// Puede invocarse concurrentemente sin coordinación.
package kpi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fondea-api/internal/domain"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
)

// Ventanas soportadas (días).
const (
	Window30 = 30
	Window90 = 90
)

// fallbackCurrency se reporta cuando el dataset no tiene ninguna orden.
const fallbackCurrency = "USD"

var hundred = decimal.NewFromInt(100)

// Input entrada completa de una invocación del motor.
//
// Orders/Refunds/Customers son los registros canónicos de todo el rango
// descargado (puede exceder la ventana: el exceso se usa para clasificar
// clientes recurrentes). Customers es opcional.
type Input struct {
	Orders    []entity.NormalizedOrder
	Refunds   []entity.NormalizedRefund
	Customers []entity.NormalizedCustomer

	Timezone        string // identificador IANA, ej. "America/Bogota"
	WindowDays      int    // 30 | 90
	PriorWindowDays int    // 0 = sin ventana anterior; si no, 30 | 90

	// Now instante de la invocación. El cero usa time.Now(); los callers
	// que necesitan reproducibilidad (tests, attestations) lo fijan.
	Now time.Time
}

// Compute ejecuta el pipeline completo: resolución de ventanas, filtrado,
// resolución de moneda, agregación, clasificación de clientes, crecimiento
// y bucketing diario. Falla únicamente con InvalidKPIConfigError ante
// configuración estructuralmente inválida; la escasez de datos nunca es error.
func Compute(in Input) (*entity.KPIResult, error) {
	loc, err := validate(in)
	if err != nil {
		return nil, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	// 1) Resolución de ventanas: [windowStart, windowEnd) actual y, si se
	// pidió, [priorStart, priorEnd) inmediatamente anterior.
	windowEnd := now
	windowStart := windowEnd.AddDate(0, 0, -in.WindowDays)

	var priorStart, priorEnd time.Time
	withPrior := in.PriorWindowDays > 0
	if withPrior {
		priorEnd = windowStart
		priorStart = windowStart.AddDate(0, 0, -in.PriorWindowDays)
	}

	// 2) Filtrado: partición en ventana actual / anterior. Lo que cae fuera
	// de ambas se ignora para agregados (pero sigue contando para la
	// clasificación de clientes, que mira todo el dataset).
	var curOrders, priorOrders []entity.NormalizedOrder
	for _, o := range in.Orders {
		switch {
		case inWindow(o.CreatedAt, windowStart, windowEnd):
			curOrders = append(curOrders, o)
		case withPrior && inWindow(o.CreatedAt, priorStart, priorEnd):
			priorOrders = append(priorOrders, o)
		}
	}
	var curRefunds, priorRefunds []entity.NormalizedRefund
	for _, r := range in.Refunds {
		switch {
		case inWindow(r.CreatedAt, windowStart, windowEnd):
			curRefunds = append(curRefunds, r)
		case withPrior && inWindow(r.CreatedAt, priorStart, priorEnd):
			priorRefunds = append(priorRefunds, r)
		}
	}

	// 3) Moneda dominante (sin conversión: mezcla de monedas se señala,
	// no se corrige).
	cur, mixed := resolveCurrency(curOrders, in.Orders)

	// 4) Agregación de la ventana actual.
	gross, discounts, orderCount := sumOrders(curOrders)
	refunds, refundCount := sumRefunds(curRefunds)
	net := gross.Sub(discounts).Sub(refunds)

	// 5) Ticket promedio: 0 exacto sin órdenes.
	aov := decimal.Zero
	if orderCount > 0 {
		aov = net.Div(decimal.NewFromInt(int64(orderCount))).Round(2)
	}

	// 6) Tasa de reembolso: 0 exacto sin ventas brutas; acotada a [0,1].
	refundRate := decimal.Zero
	if gross.IsPositive() {
		refundRate = refunds.Div(gross).Round(4)
		if refundRate.GreaterThan(decimal.NewFromInt(1)) {
			refundRate = decimal.NewFromInt(1)
		}
	}

	// 7) Clientes nuevos vs recurrentes.
	newCount, returningCount, signal := classifyCustomers(in.Orders, in.Customers, windowStart, windowEnd)

	result := &entity.KPIResult{
		WindowDays:             in.WindowDays,
		Currency:               cur,
		GrossSales:             gross,
		TotalDiscounts:         discounts,
		TotalRefunds:           refunds,
		NetSales:               net,
		OrderCount:             orderCount,
		RefundCount:            refundCount,
		AverageOrderValue:      aov,
		RefundRate:             refundRate,
		NewCustomerCount:       newCount,
		ReturningCustomerCount: returningCount,
		CustomerSignal:         signal,
		MixedCurrency:          mixed,
	}

	// 8) Crecimiento contra la ventana anterior (si se solicitó).
	if withPrior {
		priorGross, priorDiscounts, priorOrderCount := sumOrders(priorOrders)
		priorRefundsSum, _ := sumRefunds(priorRefunds)
		priorNet := priorGross.Sub(priorDiscounts).Sub(priorRefundsSum)

		result.Growth = &entity.KPIGrowth{
			NetSalesGrowthPct: growthPct(net, priorNet),
			OrderCountGrowthPct: growthPct(
				decimal.NewFromInt(int64(orderCount)),
				decimal.NewFromInt(int64(priorOrderCount)),
			),
		}
	}

	// 9) Buckets diarios en el timezone solicitado.
	result.DailyBuckets = buildDailyBuckets(curOrders, curRefunds, windowStart, in.WindowDays, loc)

	return result, nil
}

// validate revisa la configuración estructural. Devuelve la Location ya
// cargada para no parsear el timezone dos veces.
func validate(in Input) (*time.Location, error) {
	if in.WindowDays != Window30 && in.WindowDays != Window90 {
		return nil, &domain.InvalidKPIConfigError{
			Field:  "window_days",
			Reason: fmt.Sprintf("valor %d no soportado (solo 30 o 90)", in.WindowDays),
		}
	}
	if in.PriorWindowDays != 0 && in.PriorWindowDays != Window30 && in.PriorWindowDays != Window90 {
		return nil, &domain.InvalidKPIConfigError{
			Field:  "prior_window_days",
			Reason: fmt.Sprintf("valor %d no soportado (solo 0, 30 o 90)", in.PriorWindowDays),
		}
	}
	if in.Timezone == "" {
		return nil, &domain.InvalidKPIConfigError{Field: "timezone", Reason: "vacío"}
	}
	loc, err := time.LoadLocation(in.Timezone)
	if err != nil {
		return nil, &domain.InvalidKPIConfigError{
			Field:  "timezone",
			Reason: fmt.Sprintf("identificador IANA inválido: %q", in.Timezone),
		}
	}
	return loc, nil
}

// inWindow intervalo semiabierto [start, end): el instante exacto de inicio
// entra, el de fin queda fuera.
func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// sumOrders suma brutos y descuentos sobre órdenes no canceladas.
// Las canceladas no aportan ni al monto ni al conteo.
func sumOrders(orders []entity.NormalizedOrder) (gross, discounts decimal.Decimal, count int) {
	for _, o := range orders {
		if o.IsCancelled {
			continue
		}
		gross = gross.Add(o.GrossAmount)
		discounts = discounts.Add(o.DiscountAmount)
		count++
	}
	return gross, discounts, count
}

func sumRefunds(refunds []entity.NormalizedRefund) (total decimal.Decimal, count int) {
	for _, r := range refunds {
		total = total.Add(r.Amount)
		count++
	}
	return total, count
}

// resolveCurrency escoge la moneda dominante: la de la pluralidad de órdenes
// por conteo en la ventana actual; empates los gana la moneda que aparece
// primero en el input. Las canceladas no votan: están excluidas de todos los
// agregados y no deben poder etiquetar el resultado con una moneda que no
// aporta a las ventas. Ventana sin votos cae al dataset completo, y sin
// ningún voto se reporta el fallback.
func resolveCurrency(cur, all []entity.NormalizedOrder) (code string, mixed bool) {
	counts, firstSeen := currencyVotes(cur)
	if len(counts) == 0 {
		counts, firstSeen = currencyVotes(all)
	}
	if len(counts) == 0 {
		return fallbackCurrency, false
	}

	best := ""
	for c, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && firstSeen[c] < firstSeen[best]) {
			best = c
		}
	}
	return best, len(counts) > 1
}

// currencyVotes cuenta monedas sobre órdenes no canceladas, recordando la
// posición de primera aparición para el desempate.
func currencyVotes(orders []entity.NormalizedOrder) (counts, firstSeen map[string]int) {
	counts = make(map[string]int, 4)
	firstSeen = make(map[string]int, 4)
	for i, o := range orders {
		if o.IsCancelled {
			continue
		}
		c := o.Currency
		if c == "" {
			c = fallbackCurrency
		}
		if _, ok := firstSeen[c]; !ok {
			firstSeen[c] = i
		}
		counts[c]++
	}
	return counts, firstSeen
}

// classifyCustomers aplica la regla de precedencia: el CustomerID por orden
// es autoritativo cuando al menos una orden lo trae; la lista de
// NormalizedCustomer es solo fallback. Sin ninguna señal, ambos contadores
// quedan en 0 y la degradación es observable vía la señal reportada.
func classifyCustomers(
	orders []entity.NormalizedOrder,
	customers []entity.NormalizedCustomer,
	windowStart, windowEnd time.Time,
) (newCount, returningCount int, signal string) {
	// Señal primaria: primera orden de cada cliente en TODO el dataset
	// (no solo la ventana), para no marcar como nuevo a quien ya compraba.
	earliest := make(map[string]time.Time)
	hasIDs := false
	for _, o := range orders {
		if o.CustomerID == "" {
			continue
		}
		hasIDs = true
		if t, ok := earliest[o.CustomerID]; !ok || o.CreatedAt.Before(t) {
			earliest[o.CustomerID] = o.CreatedAt
		}
	}

	if hasIDs {
		// Clientes con actividad en la ventana actual, uno por ID.
		active := make(map[string]bool)
		for _, o := range orders {
			if o.CustomerID != "" && inWindow(o.CreatedAt, windowStart, windowEnd) {
				active[o.CustomerID] = true
			}
		}
		for id := range active {
			if inWindow(earliest[id], windowStart, windowEnd) {
				newCount++
			} else {
				returningCount++
			}
		}
		return newCount, returningCount, entity.CustomerSignalOrderIDs
	}

	if len(customers) > 0 {
		for _, c := range customers {
			if inWindow(c.CreatedAt, windowStart, windowEnd) {
				newCount++
			} else {
				returningCount++
			}
		}
		return newCount, returningCount, entity.CustomerSignalCustomerRecords
	}

	return 0, 0, entity.CustomerSignalNone
}

// growthPct variación porcentual (current - prior) / prior * 100.
// Política documentada: base cero => 0 exacto, sin importar el valor actual.
func growthPct(current, prior decimal.Decimal) decimal.Decimal {
	if prior.IsZero() {
		return decimal.Zero
	}
	return current.Sub(prior).Div(prior).Mul(hundred).Round(2)
}

// buildDailyBuckets emite exactamente windowDays buckets contiguos a partir
// de la fecha local de windowStart, con ventas netas y conteo por día. El
// instante UTC de cada registro se convierte al timezone solo aquí. Un
// registro cuya fecha local cae fuera de los windowDays días emitidos se
// descarta del bucketing (sigue contando en los agregados de la ventana),
// así que la suma por buckets puede quedar por debajo de los totales.
func buildDailyBuckets(
	orders []entity.NormalizedOrder,
	refunds []entity.NormalizedRefund,
	windowStart time.Time,
	windowDays int,
	loc *time.Location,
) []entity.DailyBucket {
	type acc struct {
		net   decimal.Decimal
		count int
	}
	byDay := make(map[string]*acc, windowDays)

	startLocal := windowStart.In(loc)
	day0 := time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day(), 0, 0, 0, 0, loc)

	buckets := make([]entity.DailyBucket, 0, windowDays)
	for i := 0; i < windowDays; i++ {
		key := day0.AddDate(0, 0, i).Format("2006-01-02")
		byDay[key] = &acc{}
		buckets = append(buckets, entity.DailyBucket{Date: key})
	}

	for _, o := range orders {
		if o.IsCancelled {
			continue
		}
		if a, ok := byDay[o.CreatedAt.In(loc).Format("2006-01-02")]; ok {
			a.net = a.net.Add(o.GrossAmount).Sub(o.DiscountAmount)
			a.count++
		}
	}
	for _, r := range refunds {
		if a, ok := byDay[r.CreatedAt.In(loc).Format("2006-01-02")]; ok {
			a.net = a.net.Sub(r.Amount)
		}
	}

	for i := range buckets {
		a := byDay[buckets[i].Date]
		buckets[i].NetSales = a.net
		buckets[i].OrderCount = a.count
	}
	return buckets
}

// Package scoring deriva el puntaje crediticio de un comercio a partir de su
// KPIResult. Servicio de dominio puro: mismo KPIResult, mismo puntaje.
package scoring

import (
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
)

// Pesos de cada componente del puntaje (suman 100).
const (
	maxVolumePoints      = 40 // volumen de ventas netas de la ventana
	maxGrowthPoints      = 25 // crecimiento contra la ventana anterior
	maxRefundPoints      = 20 // tasa de reembolso baja
	maxConsistencyPoints = 15 // proporción de días con actividad
)

// Bandas de riesgo.
const (
	BandA = "A" // >= 80
	BandB = "B" // >= 60
	BandC = "C" // >= 40
	BandD = "D" // < 40
)

// volumeTarget ventas netas (unidad mayor) que otorgan el máximo de puntos
// de volumen; por debajo se interpola linealmente.
var volumeTarget = decimal.NewFromInt(50_000)

// Score resultado del cálculo crediticio.
type Score struct {
	Value int    `json:"value"` // 0-100
	Band  string `json:"band"`  // A | B | C | D
}

// FromKPI calcula el puntaje a partir de un KPIResult.
//
// Volumen:      netSales/volumeTarget acotado a [0,1] * 40.
// Crecimiento:  sin ventana anterior, mitad de los puntos (neutro);
//               -50% o peor = 0, +50% o mejor = 25, lineal en medio.
// Reembolsos:   0% = 20 puntos, >= 10% = 0, lineal en medio.
// Consistencia: fracción de días de la ventana con al menos una orden * 15.
func FromKPI(r *entity.KPIResult) Score {
	points := volumePoints(r.NetSales).
		Add(growthPoints(r.Growth)).
		Add(refundPoints(r.RefundRate)).
		Add(consistencyPoints(r.DailyBuckets))

	value := int(points.Round(0).IntPart())
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return Score{Value: value, Band: band(value)}
}

func band(value int) string {
	switch {
	case value >= 80:
		return BandA
	case value >= 60:
		return BandB
	case value >= 40:
		return BandC
	default:
		return BandD
	}
}

func volumePoints(netSales decimal.Decimal) decimal.Decimal {
	if netSales.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	ratio := netSales.Div(volumeTarget)
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		ratio = decimal.NewFromInt(1)
	}
	return ratio.Mul(decimal.NewFromInt(maxVolumePoints))
}

func growthPoints(g *entity.KPIGrowth) decimal.Decimal {
	max := decimal.NewFromInt(maxGrowthPoints)
	if g == nil {
		// Sin ventana anterior no hay señal: puntaje neutro.
		return max.Div(decimal.NewFromInt(2))
	}
	// Mapear [-50%, +50%] a [0, maxGrowthPoints].
	fifty := decimal.NewFromInt(50)
	pct := g.NetSalesGrowthPct
	if pct.LessThan(fifty.Neg()) {
		pct = fifty.Neg()
	}
	if pct.GreaterThan(fifty) {
		pct = fifty
	}
	return pct.Add(fifty).Div(hundredDec).Mul(max)
}

func refundPoints(rate decimal.Decimal) decimal.Decimal {
	// 10% de reembolsos anula el componente.
	limit := decimal.NewFromFloat(0.10)
	if rate.GreaterThanOrEqual(limit) {
		return decimal.Zero
	}
	frac := limit.Sub(rate).Div(limit)
	return frac.Mul(decimal.NewFromInt(maxRefundPoints))
}

func consistencyPoints(buckets []entity.DailyBucket) decimal.Decimal {
	if len(buckets) == 0 {
		return decimal.Zero
	}
	activos := 0
	for _, b := range buckets {
		if b.OrderCount > 0 {
			activos++
		}
	}
	frac := decimal.NewFromInt(int64(activos)).Div(decimal.NewFromInt(int64(len(buckets))))
	return frac.Mul(decimal.NewFromInt(maxConsistencyPoints))
}

var hundredDec = decimal.NewFromInt(100)

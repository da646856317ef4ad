package scoring_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/internal/domain/scoring"
)

// buckets genera n días, los primeros activos con una orden cada uno.
func buckets(n, activos int) []entity.DailyBucket {
	out := make([]entity.DailyBucket, n)
	for i := range out {
		out[i].NetSales = decimal.Zero
		if i < activos {
			out[i].OrderCount = 1
		}
	}
	return out
}

func TestFromKPI_ComercioFuerte(t *testing.T) {
	// Volumen al tope, crecimiento +50%, cero reembolsos, actividad diaria.
	r := &entity.KPIResult{
		NetSales:   decimal.NewFromInt(80_000),
		RefundRate: decimal.Zero,
		Growth:     &entity.KPIGrowth{NetSalesGrowthPct: decimal.NewFromInt(60)},
	}
	r.DailyBuckets = buckets(30, 30)

	s := scoring.FromKPI(r)
	assert.Equal(t, 100, s.Value)
	assert.Equal(t, scoring.BandA, s.Band)
}

func TestFromKPI_SinActividad(t *testing.T) {
	r := &entity.KPIResult{
		NetSales:     decimal.Zero,
		RefundRate:   decimal.Zero,
		DailyBuckets: buckets(30, 0),
	}
	s := scoring.FromKPI(r)
	// Solo quedan los puntos de reembolso (20) + crecimiento neutro (12.5) ≈ 33.
	assert.Equal(t, scoring.BandD, s.Band)
	assert.LessOrEqual(t, s.Value, 39)
}

func TestFromKPI_ReembolsosAltosPenalizados(t *testing.T) {
	base := &entity.KPIResult{
		NetSales:     decimal.NewFromInt(50_000),
		RefundRate:   decimal.Zero,
		DailyBuckets: buckets(30, 30),
	}
	conReembolsos := &entity.KPIResult{
		NetSales:     decimal.NewFromInt(50_000),
		RefundRate:   decimal.NewFromFloat(0.15),
		DailyBuckets: buckets(30, 30),
	}

	assert.Greater(t, scoring.FromKPI(base).Value, scoring.FromKPI(conReembolsos).Value,
		"15%% de reembolsos debe bajar el puntaje")
}

func TestFromKPI_Determinista(t *testing.T) {
	r := &entity.KPIResult{
		NetSales:     decimal.NewFromInt(12_345),
		RefundRate:   decimal.NewFromFloat(0.03),
		Growth:       &entity.KPIGrowth{NetSalesGrowthPct: decimal.NewFromInt(10)},
		DailyBuckets: buckets(90, 45),
	}
	assert.Equal(t, scoring.FromKPI(r), scoring.FromKPI(r))
}

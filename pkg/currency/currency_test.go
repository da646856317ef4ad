package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExponent(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"USD", 2},
		{"COP", 2},
		{"EUR", 2},
		{"JPY", 0},
		{"KRW", 0},
		{"BHD", 3},
		{" usd ", 2}, // ParseISO tolera espacios tras el trim
		{"XXX?", 2},  // no reconocido cae al default
		{"", 2},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Exponent(tt.code), "exponente de %q", tt.code)
		})
	}
}

func TestMinorToMajor(t *testing.T) {
	tests := []struct {
		name  string
		minor int64
		code  string
		want  string
	}{
		{"centavos USD", 1050, "USD", "10.5"},
		{"JPY sin unidad menor", 5000, "JPY", "5000"},
		{"BHD tres decimales", 12345, "BHD", "12.345"},
		{"negativo", -999, "USD", "-9.99"},
		{"cero", 0, "COP", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinorToMajor(tt.minor, tt.code)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"esperaba %s, llegó %s", tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "USD", Normalize("usd "))
	assert.Equal(t, "COP", Normalize("\tcop"))
	assert.Equal(t, "", Normalize("  "))
}

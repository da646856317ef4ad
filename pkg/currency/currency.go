// Package currency resuelve el exponente de unidad menor ISO 4217 para
// convertir montos de proveedores que reportan enteros en centavos
// (Stripe, Square) a unidades mayores decimales.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// defaultExponent se usa cuando el código ISO no se reconoce.
// La gran mayoría de monedas usa 2 decimales.
const defaultExponent = 2

// Exponent devuelve el número de dígitos de la unidad menor de una moneda
// (USD -> 2, COP -> 2, JPY -> 0, BHD -> 3). Código no reconocido -> 2.
func Exponent(code string) int {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return defaultExponent
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// MinorToMajor convierte un monto entero en unidad menor al decimal en
// unidad mayor según el exponente de la moneda (1050, "USD" -> 10.50).
func MinorToMajor(minor int64, code string) decimal.Decimal {
	return decimal.New(minor, 0).Shift(int32(-Exponent(code)))
}

// Normalize limpia y normaliza un código ISO 4217 ("usd " -> "USD").
// Código vacío se devuelve tal cual; el motor KPI decide el fallback.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

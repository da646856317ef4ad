package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Attestation declaración firmada de los ingresos de un comercio para un
// período mensual. El hash del payload canónico es el ancla off-chain que
// referencia el contrato de campaña; PrevHash encadena attestations sucesivas.
type Attestation struct {
	ID          string
	MerchantID  string
	Period      string // YYYY-MM del mes atestado
	Currency    string
	NetSales    decimal.Decimal
	GrossSales  decimal.Decimal
	OrderCount  int
	RefundRate  decimal.Decimal
	PayloadJSON string // payload canónico serializado (exactamente lo que se hasheó)
	ContentHash string // SHA-256 hex del payload canónico
	Signature   string // firma Ed25519 hex sobre el hash
	PrevHash    string // ContentHash de la attestation anterior; vacío en la primera
	CreatedAt   time.Time
}

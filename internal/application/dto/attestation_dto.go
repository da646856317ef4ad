package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateAttestationRequest entrada para POST /api/attestations.
// Period vacío atesta el mes calendario anterior.
type CreateAttestationRequest struct {
	Period   string `json:"period" validate:"omitempty,len=7"` // YYYY-MM
	Timezone string `json:"timezone" validate:"omitempty"`
}

// AttestationResponse salida de una attestation firmada.
type AttestationResponse struct {
	ID          string          `json:"id"`
	MerchantID  string          `json:"merchant_id"`
	Period      string          `json:"period"`
	Currency    string          `json:"currency"`
	NetSales    decimal.Decimal `json:"net_sales"`
	GrossSales  decimal.Decimal `json:"gross_sales"`
	OrderCount  int             `json:"order_count"`
	RefundRate  decimal.Decimal `json:"refund_rate"`
	ContentHash string          `json:"content_hash"`
	Signature   string          `json:"signature"`
	PrevHash    string          `json:"prev_hash,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AttestationListResponse listado paginado.
type AttestationListResponse struct {
	Attestations []AttestationResponse `json:"attestations"`
	Page         PageResponse          `json:"page"`
}

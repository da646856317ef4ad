package repository

import "github.com/tu-usuario/fondea-api/internal/domain/entity"

// AttestationRepository define el puerto de persistencia para attestations
// mensuales firmadas.
type AttestationRepository interface {
	Create(att *entity.Attestation) error
	GetByID(id string) (*entity.Attestation, error)
	// GetLatestByMerchant devuelve la attestation más reciente del comercio
	// (para encadenar PrevHash); nil sin error si no existe ninguna.
	GetLatestByMerchant(merchantID string) (*entity.Attestation, error)
	// GetByMerchantAndPeriod busca por período YYYY-MM; nil sin error si no existe.
	GetByMerchantAndPeriod(merchantID, period string) (*entity.Attestation, error)
	ListByMerchant(merchantID string, limit, offset int) ([]*entity.Attestation, error)
}

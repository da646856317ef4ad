package repository

import "github.com/tu-usuario/fondea-api/internal/domain/entity"

// MerchantRepository define el puerto de persistencia para comercios.
type MerchantRepository interface {
	Create(merchant *entity.Merchant) error
	GetByID(id string) (*entity.Merchant, error)
}

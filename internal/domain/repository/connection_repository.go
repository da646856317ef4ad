package repository

import "github.com/tu-usuario/fondea-api/internal/domain/entity"

// ConnectionRepository define el puerto de persistencia para conexiones de
// proveedores de comercio.
type ConnectionRepository interface {
	Create(conn *entity.Connection) error
	GetByID(id string) (*entity.Connection, error)
	// ListActiveByMerchant devuelve las conexiones activas de un comercio,
	// en orden de creación ascendente.
	ListActiveByMerchant(merchantID string) ([]*entity.Connection, error)
	ListByMerchant(merchantID string, limit, offset int) ([]*entity.Connection, error)
	// Deactivate marca la conexión como inactiva; no borra el material de
	// credencial (auditoría).
	Deactivate(id string) error
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/fondea-api/internal/domain"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/internal/domain/repository"
)

var _ repository.ConnectionRepository = (*ConnectionRepo)(nil)

const connectionColumns = `id, merchant_id, provider, access_token, api_secret,
	shop_domain, external_id, environment, active, created_at, updated_at`

// ConnectionRepo implementación de ConnectionRepository (usable con pool o tx).
type ConnectionRepo struct {
	q Querier
}

// NewConnectionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConnectionRepository(q Querier) *ConnectionRepo {
	return &ConnectionRepo{q: q}
}

// Create persiste una nueva conexión de proveedor.
func (r *ConnectionRepo) Create(conn *entity.Connection) error {
	query := `
		INSERT INTO connections (` + connectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		conn.ID, conn.MerchantID, conn.Provider, conn.AccessToken, conn.APISecret,
		conn.ShopDomain, conn.ExternalID, conn.Environment, conn.Active,
		conn.CreatedAt, conn.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert connection: %w", err)
	}
	return nil
}

// GetByID obtiene una conexión por ID.
func (r *ConnectionRepo) GetByID(id string) (*entity.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`
	var c entity.Connection
	err := r.q.QueryRow(context.Background(), query, id).Scan(scanTargets(&c)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return &c, nil
}

// ListActiveByMerchant lista las conexiones activas del comercio en orden de
// creación ascendente (el orden define qué conexión es la primera al agregar).
func (r *ConnectionRepo) ListActiveByMerchant(merchantID string) ([]*entity.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections WHERE merchant_id = $1 AND active = true
		ORDER BY created_at ASC`
	return r.list(query, merchantID)
}

// ListByMerchant lista todas las conexiones del comercio con paginación.
func (r *ConnectionRepo) ListByMerchant(merchantID string, limit, offset int) ([]*entity.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections WHERE merchant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(query, merchantID, limit, offset)
}

// Deactivate marca la conexión como inactiva conservando la credencial.
func (r *ConnectionRepo) Deactivate(id string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE connections SET active = false, updated_at = $2 WHERE id = $1`, id, time.Now())
	if err != nil {
		return fmt.Errorf("deactivate connection: %w", err)
	}
	return nil
}

func (r *ConnectionRepo) list(query string, args ...any) ([]*entity.Connection, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()
	var list []*entity.Connection
	for rows.Next() {
		var c entity.Connection
		if err := rows.Scan(scanTargets(&c)...); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

func scanTargets(c *entity.Connection) []any {
	return []any{
		&c.ID, &c.MerchantID, &c.Provider, &c.AccessToken, &c.APISecret,
		&c.ShopDomain, &c.ExternalID, &c.Environment, &c.Active,
		&c.CreatedAt, &c.UpdatedAt,
	}
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/fondea-api/internal/domain"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/internal/domain/repository"
)

var _ repository.MerchantRepository = (*MerchantRepo)(nil)

// MerchantRepo implementación de MerchantRepository (usable con pool o tx).
type MerchantRepo struct {
	q Querier
}

// NewMerchantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMerchantRepository(q Querier) *MerchantRepo {
	return &MerchantRepo{q: q}
}

// Create persiste un nuevo comercio.
func (r *MerchantRepo) Create(merchant *entity.Merchant) error {
	query := `
		INSERT INTO merchants (id, name, legal_id, country, wallet, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		merchant.ID, merchant.Name, merchant.LegalID, merchant.Country, merchant.Wallet,
		merchant.CreatedAt, merchant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID obtiene un comercio por ID.
func (r *MerchantRepo) GetByID(id string) (*entity.Merchant, error) {
	query := `
		SELECT id, name, legal_id, country, wallet, created_at, updated_at
		FROM merchants WHERE id = $1`
	var m entity.Merchant
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&m.ID, &m.Name, &m.LegalID, &m.Country, &m.Wallet, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	return &m, nil
}

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

var _ repository.AttestationRepository = (*AttestationRepo)(nil)

const attestationColumns = `id, merchant_id, period, currency, net_sales, gross_sales,
	order_count, refund_rate, payload_json, content_hash, signature, prev_hash, created_at`

// AttestationRepo implementación de AttestationRepository (usable con pool o tx).
type AttestationRepo struct {
	q Querier
}

// NewAttestationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAttestationRepository(q Querier) *AttestationRepo {
	return &AttestationRepo{q: q}
}

// Create persiste una attestation firmada. La tabla tiene constraint único
// sobre (merchant_id, period): un período repetido devuelve ErrDuplicate.
func (r *AttestationRepo) Create(att *entity.Attestation) error {
	query := `
		INSERT INTO attestations (` + attestationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		att.ID, att.MerchantID, att.Period, att.Currency, att.NetSales, att.GrossSales,
		att.OrderCount, att.RefundRate, att.PayloadJSON, att.ContentHash, att.Signature,
		att.PrevHash, att.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert attestation: %w", err)
	}
	return nil
}

// GetByID obtiene una attestation por ID.
func (r *AttestationRepo) GetByID(id string) (*entity.Attestation, error) {
	query := `SELECT ` + attestationColumns + ` FROM attestations WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetLatestByMerchant devuelve la attestation más reciente del comercio;
// nil sin error si no existe ninguna. Bloquea la fila dentro de una tx para
// serializar el encadenamiento de prev_hash.
func (r *AttestationRepo) GetLatestByMerchant(merchantID string) (*entity.Attestation, error) {
	query := `
		SELECT ` + attestationColumns + `
		FROM attestations WHERE merchant_id = $1
		ORDER BY created_at DESC LIMIT 1
		FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, merchantID))
}

// GetByMerchantAndPeriod busca por período YYYY-MM; nil sin error si no existe.
func (r *AttestationRepo) GetByMerchantAndPeriod(merchantID, period string) (*entity.Attestation, error) {
	query := `
		SELECT ` + attestationColumns + `
		FROM attestations WHERE merchant_id = $1 AND period = $2`
	return r.scanOne(r.q.QueryRow(context.Background(), query, merchantID, period))
}

// ListByMerchant lista attestations del comercio, más reciente primero.
func (r *AttestationRepo) ListByMerchant(merchantID string, limit, offset int) ([]*entity.Attestation, error) {
	query := `
		SELECT ` + attestationColumns + `
		FROM attestations WHERE merchant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, merchantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list attestations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Attestation
	for rows.Next() {
		var a entity.Attestation
		if err := rows.Scan(
			&a.ID, &a.MerchantID, &a.Period, &a.Currency, &a.NetSales, &a.GrossSales,
			&a.OrderCount, &a.RefundRate, &a.PayloadJSON, &a.ContentHash, &a.Signature,
			&a.PrevHash, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attestation: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

func (r *AttestationRepo) scanOne(row pgx.Row) (*entity.Attestation, error) {
	var a entity.Attestation
	err := row.Scan(
		&a.ID, &a.MerchantID, &a.Period, &a.Currency, &a.NetSales, &a.GrossSales,
		&a.OrderCount, &a.RefundRate, &a.PayloadJSON, &a.ContentHash, &a.Signature,
		&a.PrevHash, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attestation: %w", err)
	}
	return &a, nil
}

package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	pkgcurrency "github.com/tu-usuario/fondea-api/pkg/currency"
)

var _ ports.ProviderAdapter = (*SquareAdapter)(nil)

const (
	squareProdURL    = "https://connect.squareup.com"
	squareSandboxURL = "https://connect.squareupsandbox.com"
	squarePageSize   = 100
)

// SquareAdapter adaptador de la Square Connect API v2 (payments, refunds,
// customers).
//
// Mapeo de campos: amount_money.amount (unidad menor) -> GrossAmount según
// exponente; status CANCELED/FAILED -> IsCancelled; customer_id opcional
// (muchos pagos de mostrador no lo traen). No hay descuentos a nivel pago: 0.
// conn.ExternalID, si está, filtra por location.
type SquareAdapter struct {
	client      *apiClient
	defaultBase string
}

// NewSquareAdapter construye el adaptador; env "sandbox" apunta al entorno
// de pruebas de Square. conn.Environment, si viene, manda sobre este default.
func NewSquareAdapter(env string) *SquareAdapter {
	base := squareProdURL
	if env == "sandbox" {
		base = squareSandboxURL
	}
	return &SquareAdapter{client: newAPIClient(entity.ProviderSquare), defaultBase: base}
}

// base resuelve el host según el entorno de la conexión; vacío cae al
// default configurado de la aplicación.
func (a *SquareAdapter) base(conn *entity.Connection) string {
	switch conn.Environment {
	case entity.EnvSandbox:
		return squareSandboxURL
	case entity.EnvProduction:
		return squareProdURL
	}
	return a.defaultBase
}

// Provider implementa ports.ProviderAdapter.
func (a *SquareAdapter) Provider() string { return entity.ProviderSquare }

// ── Formas crudas ─────────────────────────────────────────────────────────────

type squareMoney struct {
	Amount   int64  `json:"amount"` // unidad menor
	Currency string `json:"currency"`
}

type squarePayment struct {
	ID          string      `json:"id"`
	CreatedAt   string      `json:"created_at"`
	AmountMoney squareMoney `json:"amount_money"`
	Status      string      `json:"status"` // COMPLETED | APPROVED | CANCELED | FAILED
	CustomerID  string      `json:"customer_id"`
}

type squareRefund struct {
	ID          string      `json:"id"`
	PaymentID   string      `json:"payment_id"`
	CreatedAt   string      `json:"created_at"`
	AmountMoney squareMoney `json:"amount_money"`
}

type squareCustomer struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

type squarePaymentsResponse struct {
	Payments []squarePayment `json:"payments"`
	Cursor   string          `json:"cursor"`
}

type squareRefundsResponse struct {
	Refunds []squareRefund `json:"refunds"`
	Cursor  string         `json:"cursor"`
}

type squareCustomersResponse struct {
	Customers []squareCustomer `json:"customers"`
	Cursor    string           `json:"cursor"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// FetchOrders descarga payments del rango con paginación por cursor.
func (a *SquareAdapter) FetchOrders(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedOrder, error) {
	var out []entity.NormalizedOrder
	cursor := ""
	for page := 0; page < maxPages; page++ {
		var resp squarePaymentsResponse
		u := a.base(conn) + "/v2/payments?" + a.rangeParams(conn, rng, cursor).Encode()
		if _, err := a.client.getJSON(ctx, u, a.headers(conn), &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Payments {
			cur := pkgcurrency.Normalize(p.AmountMoney.Currency)
			out = append(out, entity.NormalizedOrder{
				ID:          p.ID,
				CreatedAt:   toTime(p.CreatedAt),
				GrossAmount: pkgcurrency.MinorToMajor(p.AmountMoney.Amount, cur),
				Currency:    cur,
				IsCancelled: p.Status == "CANCELED" || p.Status == "FAILED",
				CustomerID:  p.CustomerID,
			})
		}
		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}
	return out, nil
}

// FetchRefunds descarga refunds del rango desde su endpoint propio.
func (a *SquareAdapter) FetchRefunds(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedRefund, error) {
	var out []entity.NormalizedRefund
	cursor := ""
	for page := 0; page < maxPages; page++ {
		var resp squareRefundsResponse
		u := a.base(conn) + "/v2/refunds?" + a.rangeParams(conn, rng, cursor).Encode()
		if _, err := a.client.getJSON(ctx, u, a.headers(conn), &resp); err != nil {
			return nil, err
		}
		for _, r := range resp.Refunds {
			cur := pkgcurrency.Normalize(r.AmountMoney.Currency)
			out = append(out, entity.NormalizedRefund{
				ID:        r.ID,
				OrderID:   r.PaymentID,
				CreatedAt: toTime(r.CreatedAt),
				Amount:    pkgcurrency.MinorToMajor(r.AmountMoney.Amount, cur),
			})
		}
		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}
	return out, nil
}

// FetchCustomers descarga el directorio de clientes completo.
func (a *SquareAdapter) FetchCustomers(ctx context.Context, conn *entity.Connection, _ ports.DateRange) ([]entity.NormalizedCustomer, error) {
	var out []entity.NormalizedCustomer
	cursor := ""
	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("limit", fmt.Sprintf("%d", squarePageSize))
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		var resp squareCustomersResponse
		u := a.base(conn) + "/v2/customers?" + params.Encode()
		if _, err := a.client.getJSON(ctx, u, a.headers(conn), &resp); err != nil {
			return nil, err
		}
		for _, c := range resp.Customers {
			out = append(out, entity.NormalizedCustomer{
				ID:        c.ID,
				CreatedAt: toTime(c.CreatedAt),
			})
		}
		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (a *SquareAdapter) headers(conn *entity.Connection) map[string]string {
	return map[string]string{"Authorization": "Bearer " + conn.AccessToken}
}

func (a *SquareAdapter) rangeParams(conn *entity.Connection, rng ports.DateRange, cursor string) url.Values {
	params := url.Values{}
	params.Set("begin_time", rng.Start.Format(time.RFC3339))
	params.Set("end_time", rng.End.Format(time.RFC3339))
	params.Set("limit", fmt.Sprintf("%d", squarePageSize))
	if conn.ExternalID != "" {
		params.Set("location_id", conn.ExternalID)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}

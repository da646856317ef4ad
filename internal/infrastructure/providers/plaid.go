package providers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	pkgcurrency "github.com/tu-usuario/fondea-api/pkg/currency"
)

var _ ports.ProviderAdapter = (*PlaidAdapter)(nil)

const plaidPageSize = 500

// PlaidAdapter adaptador de la API de transacciones bancarias de Plaid.
//
// Plaid no es una plataforma de comercio: los abonos (montos negativos, que
// en la convención de Plaid son dinero entrando a la cuenta) se normalizan
// como órdenes de ingreso y los débitos se ignoran. No expone reembolsos ni
// clientes. conn.ExternalID lleva el client_id, conn.APISecret el secret y
// conn.AccessToken el access token del item.
type PlaidAdapter struct {
	client      *apiClient
	defaultBase string
}

// NewPlaidAdapter construye el adaptador para el ambiente dado
// (sandbox, development o production). conn.Environment, si viene,
// manda sobre este default.
func NewPlaidAdapter(env string) *PlaidAdapter {
	base := plaidEnvURL(env)
	if base == "" {
		base = plaidProdURL
	}
	return &PlaidAdapter{
		client:      newAPIClient(entity.ProviderPlaid),
		defaultBase: base,
	}
}

const (
	plaidProdURL    = "https://production.plaid.com"
	plaidSandboxURL = "https://sandbox.plaid.com"
	plaidDevURL     = "https://development.plaid.com"
)

func plaidEnvURL(env string) string {
	switch env {
	case entity.EnvProduction:
		return plaidProdURL
	case entity.EnvSandbox:
		return plaidSandboxURL
	case "development":
		return plaidDevURL
	}
	return ""
}

// base resuelve el host según el entorno de la conexión; vacío cae al
// default configurado de la aplicación.
func (a *PlaidAdapter) base(conn *entity.Connection) string {
	if u := plaidEnvURL(conn.Environment); u != "" {
		return u
	}
	return a.defaultBase
}

// Provider implementa ports.ProviderAdapter.
func (a *PlaidAdapter) Provider() string { return entity.ProviderPlaid }

// ── Formas crudas ─────────────────────────────────────────────────────────────

type plaidTxRequest struct {
	ClientID    string         `json:"client_id"`
	Secret      string         `json:"secret"`
	AccessToken string         `json:"access_token"`
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date"`
	Options     plaidTxOptions `json:"options"`
}

type plaidTxOptions struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`
}

type plaidTxResponse struct {
	Transactions      []plaidTransaction `json:"transactions"`
	TotalTransactions int                `json:"total_transactions"`
}

type plaidTransaction struct {
	TransactionID   string  `json:"transaction_id"`
	Date            string  `json:"date"` // YYYY-MM-DD
	Amount          float64 `json:"amount"`
	ISOCurrencyCode string  `json:"iso_currency_code"`
	Pending         bool    `json:"pending"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// FetchOrders descarga las transacciones del rango vía /transactions/get con
// paginación por offset, y conserva solo los abonos como órdenes.
func (a *PlaidAdapter) FetchOrders(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedOrder, error) {
	var out []entity.NormalizedOrder
	offset := 0
	for page := 0; page < maxPages; page++ {
		body := plaidTxRequest{
			ClientID:    conn.ExternalID,
			Secret:      conn.APISecret,
			AccessToken: conn.AccessToken,
			StartDate:   rng.Start.Format("2006-01-02"),
			EndDate:     rng.End.Format("2006-01-02"),
			Options:     plaidTxOptions{Count: plaidPageSize, Offset: offset},
		}

		var resp plaidTxResponse
		if err := a.client.postJSON(ctx, a.base(conn)+"/transactions/get", nil, body, &resp); err != nil {
			return nil, err
		}

		for _, tx := range resp.Transactions {
			if tx.Amount >= 0 || tx.Pending {
				continue // débito o transacción no liquidada
			}
			out = append(out, entity.NormalizedOrder{
				ID:          tx.TransactionID,
				CreatedAt:   toTime(tx.Date + "T00:00:00Z"),
				GrossAmount: decimal.NewFromFloat(-tx.Amount),
				Currency:    pkgcurrency.Normalize(tx.ISOCurrencyCode),
			})
		}

		offset += len(resp.Transactions)
		if offset >= resp.TotalTransactions || len(resp.Transactions) == 0 {
			break
		}
	}
	return out, nil
}

// FetchRefunds no aplica: los extractos bancarios no distinguen reembolsos.
func (a *PlaidAdapter) FetchRefunds(_ context.Context, _ *entity.Connection, _ ports.DateRange) ([]entity.NormalizedRefund, error) {
	return nil, nil
}

// FetchCustomers no aplica: Plaid no expone clientes.
func (a *PlaidAdapter) FetchCustomers(_ context.Context, _ *entity.Connection, _ ports.DateRange) ([]entity.NormalizedCustomer, error) {
	return nil, nil
}

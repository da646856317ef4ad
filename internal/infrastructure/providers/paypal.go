package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	pkgcurrency "github.com/tu-usuario/fondea-api/pkg/currency"
)

var _ ports.ProviderAdapter = (*PayPalAdapter)(nil)

const (
	paypalProdURL    = "https://api-m.paypal.com"
	paypalSandboxURL = "https://api-m.sandbox.paypal.com"
	paypalPageSize   = 500

	// La Transaction Search API acepta rangos de máximo 31 días: los rangos
	// mayores se trocean en tandas y se concatenan (invisible para el caller).
	paypalMaxRangeDays = 31
)

// PayPalAdapter adaptador de la PayPal Transaction Search API.
//
// Mapeo de campos: transaction_amount.value (string en unidad mayor) ->
// GrossAmount; event codes T00xx = pagos (ventas), T11xx = reembolsos;
// transaction_status "D" (denegada) o "V" (reversada) -> IsCancelled.
// PayPal no expone identidad de cliente por transacción: CustomerID vacío
// y FetchCustomers devuelve lista vacía.
type PayPalAdapter struct {
	client      *apiClient
	defaultBase string
}

// NewPayPalAdapter construye el adaptador; env "sandbox" apunta al sandbox.
// conn.Environment, si viene, manda sobre este default.
func NewPayPalAdapter(env string) *PayPalAdapter {
	base := paypalProdURL
	if env == "sandbox" {
		base = paypalSandboxURL
	}
	return &PayPalAdapter{client: newAPIClient(entity.ProviderPayPal), defaultBase: base}
}

// base resuelve el host según el entorno de la conexión; vacío cae al
// default configurado de la aplicación.
func (a *PayPalAdapter) base(conn *entity.Connection) string {
	switch conn.Environment {
	case entity.EnvSandbox:
		return paypalSandboxURL
	case entity.EnvProduction:
		return paypalProdURL
	}
	return a.defaultBase
}

// Provider implementa ports.ProviderAdapter.
func (a *PayPalAdapter) Provider() string { return entity.ProviderPayPal }

// ── Formas crudas ─────────────────────────────────────────────────────────────

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalTransactionInfo struct {
	TransactionID        string       `json:"transaction_id"`
	PayPalReferenceID    string       `json:"paypal_reference_id"`
	TransactionEventCode string       `json:"transaction_event_code"`
	TransactionInitDate  string       `json:"transaction_initiation_date"`
	TransactionAmount    paypalAmount `json:"transaction_amount"`
	TransactionStatus    string       `json:"transaction_status"` // S | P | D | V
}

type paypalTransactionDetail struct {
	TransactionInfo paypalTransactionInfo `json:"transaction_info"`
}

type paypalTransactionsResponse struct {
	TransactionDetails []paypalTransactionDetail `json:"transaction_details"`
	TotalPages         int                       `json:"total_pages"`
	Page               int                       `json:"page"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// FetchOrders descarga transacciones de venta (event code T00xx) del rango.
func (a *PayPalAdapter) FetchOrders(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedOrder, error) {
	var out []entity.NormalizedOrder
	err := a.eachTransaction(ctx, conn, rng, func(info paypalTransactionInfo) {
		if !strings.HasPrefix(info.TransactionEventCode, "T00") {
			return
		}
		out = append(out, entity.NormalizedOrder{
			ID:          info.TransactionID,
			CreatedAt:   toTime(info.TransactionInitDate),
			GrossAmount: toDecimal(info.TransactionAmount.Value).Abs(),
			Currency:    pkgcurrency.Normalize(info.TransactionAmount.CurrencyCode),
			IsCancelled: info.TransactionStatus == "D" || info.TransactionStatus == "V",
		})
	})
	return out, err
}

// FetchRefunds descarga reembolsos (event code T11xx); el valor llega
// negativo y se normaliza a monto positivo. paypal_reference_id apunta a la
// transacción de venta original.
func (a *PayPalAdapter) FetchRefunds(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedRefund, error) {
	var out []entity.NormalizedRefund
	err := a.eachTransaction(ctx, conn, rng, func(info paypalTransactionInfo) {
		if !strings.HasPrefix(info.TransactionEventCode, "T11") {
			return
		}
		out = append(out, entity.NormalizedRefund{
			ID:        info.TransactionID,
			OrderID:   info.PayPalReferenceID,
			CreatedAt: toTime(info.TransactionInitDate),
			Amount:    toDecimal(info.TransactionAmount.Value).Abs(),
		})
	})
	return out, err
}

// FetchCustomers PayPal no expone directorio de clientes: lista vacía.
func (a *PayPalAdapter) FetchCustomers(context.Context, *entity.Connection, ports.DateRange) ([]entity.NormalizedCustomer, error) {
	return nil, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// eachTransaction recorre todas las transacciones del rango: trocea en
// tandas de <= 31 días y pagina cada tanda (page/total_pages).
func (a *PayPalAdapter) eachTransaction(
	ctx context.Context,
	conn *entity.Connection,
	rng ports.DateRange,
	each func(paypalTransactionInfo),
) error {
	for start := rng.Start; start.Before(rng.End); start = start.AddDate(0, 0, paypalMaxRangeDays) {
		end := start.AddDate(0, 0, paypalMaxRangeDays)
		if end.After(rng.End) {
			end = rng.End
		}

		for page := 1; page <= maxPages; page++ {
			params := url.Values{}
			params.Set("start_date", start.Format(time.RFC3339))
			params.Set("end_date", end.Format(time.RFC3339))
			params.Set("page_size", fmt.Sprintf("%d", paypalPageSize))
			params.Set("page", fmt.Sprintf("%d", page))
			params.Set("fields", "transaction_info")

			var resp paypalTransactionsResponse
			u := a.base(conn) + "/v1/reporting/transactions?" + params.Encode()
			if _, err := a.client.getJSON(ctx, u, map[string]string{
				"Authorization": "Bearer " + conn.AccessToken,
			}, &resp); err != nil {
				return err
			}

			for _, d := range resp.TransactionDetails {
				each(d.TransactionInfo)
			}
			if page >= resp.TotalPages {
				break
			}
		}
	}
	return nil
}

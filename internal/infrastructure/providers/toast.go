package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
)

var _ ports.ProviderAdapter = (*ToastAdapter)(nil)

const (
	toastDefaultURL = "https://ws-api.toasttab.com"
	toastPageSize   = 100
)

// ToastAdapter adaptador de la Toast Orders API (restaurantes).
//
// Mapeo de campos: suma de checks.totalAmount (unidad mayor, USD) ->
// GrossAmount; checks.appliedDiscounts.discountAmount -> DiscountAmount;
// voided -> IsCancelled; checks.customer.guid -> CustomerID. Los reembolsos
// viven anidados en los pagos de cada check y se aplanan con el guid de la
// orden padre. conn.ExternalID es el GUID del restaurante (header obligatorio).
type ToastAdapter struct {
	client  *apiClient
	baseURL string
}

// NewToastAdapter construye el adaptador. baseURL vacío usa el productivo.
func NewToastAdapter(baseURL string) *ToastAdapter {
	if baseURL == "" {
		baseURL = toastDefaultURL
	}
	return &ToastAdapter{client: newAPIClient(entity.ProviderToast), baseURL: baseURL}
}

// Provider implementa ports.ProviderAdapter.
func (a *ToastAdapter) Provider() string { return entity.ProviderToast }

// ── Formas crudas ─────────────────────────────────────────────────────────────

type toastOrder struct {
	GUID       string       `json:"guid"`
	OpenedDate string       `json:"openedDate"`
	Voided     bool         `json:"voided"`
	Checks     []toastCheck `json:"checks"`
}

type toastCheck struct {
	TotalAmount      float64         `json:"totalAmount"`
	AppliedDiscounts []toastDiscount `json:"appliedDiscounts"`
	Payments         []toastPayment  `json:"payments"`
	Customer         *toastGUID      `json:"customer"`
}

type toastDiscount struct {
	DiscountAmount float64 `json:"discountAmount"`
}

type toastPayment struct {
	GUID   string       `json:"guid"`
	Refund *toastRefund `json:"refund"`
}

type toastRefund struct {
	RefundAmount float64 `json:"refundAmount"`
	RefundDate   string  `json:"refundDate"`
}

type toastGUID struct {
	GUID string `json:"guid"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// FetchOrders descarga órdenes del rango vía ordersBulk con paginación por
// número de página (se detiene al recibir menos de una página completa).
func (a *ToastAdapter) FetchOrders(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedOrder, error) {
	raw, err := a.fetchRawOrders(ctx, conn, rng)
	if err != nil {
		return nil, err
	}

	out := make([]entity.NormalizedOrder, 0, len(raw))
	for _, o := range raw {
		gross := decimal.Zero
		discounts := decimal.Zero
		customerID := ""
		for _, ch := range o.Checks {
			gross = gross.Add(decimal.NewFromFloat(ch.TotalAmount))
			for _, d := range ch.AppliedDiscounts {
				discounts = discounts.Add(decimal.NewFromFloat(d.DiscountAmount))
			}
			if customerID == "" && ch.Customer != nil {
				customerID = ch.Customer.GUID
			}
		}
		out = append(out, entity.NormalizedOrder{
			ID:             o.GUID,
			CreatedAt:      toTime(o.OpenedDate),
			GrossAmount:    gross,
			Currency:       "USD", // Toast solo opera en USD
			DiscountAmount: discounts,
			IsCancelled:    o.Voided,
			CustomerID:     customerID,
		})
	}
	return out, nil
}

// FetchRefunds aplana los reembolsos anidados en los pagos de cada check.
func (a *ToastAdapter) FetchRefunds(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedRefund, error) {
	raw, err := a.fetchRawOrders(ctx, conn, rng)
	if err != nil {
		return nil, err
	}

	var out []entity.NormalizedRefund
	for _, o := range raw {
		for _, ch := range o.Checks {
			for _, p := range ch.Payments {
				if p.Refund == nil {
					continue
				}
				out = append(out, entity.NormalizedRefund{
					ID:        p.GUID,
					OrderID:   o.GUID,
					CreatedAt: toTime(p.Refund.RefundDate),
					Amount:    decimal.NewFromFloat(p.Refund.RefundAmount),
				})
			}
		}
	}
	return out, nil
}

// FetchCustomers Toast no expone directorio de clientes por esta API: la
// identidad viene en el check y ya se mapeó a CustomerID.
func (a *ToastAdapter) FetchCustomers(context.Context, *entity.Connection, ports.DateRange) ([]entity.NormalizedCustomer, error) {
	return nil, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (a *ToastAdapter) fetchRawOrders(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]toastOrder, error) {
	var out []toastOrder
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("startDate", rng.Start.Format(time.RFC3339))
		params.Set("endDate", rng.End.Format(time.RFC3339))
		params.Set("page", fmt.Sprintf("%d", page))
		params.Set("pageSize", fmt.Sprintf("%d", toastPageSize))

		var batch []toastOrder
		u := a.baseURL + "/orders/v2/ordersBulk?" + params.Encode()
		if _, err := a.client.getJSON(ctx, u, map[string]string{
			"Authorization":               "Bearer " + conn.AccessToken,
			"Toast-Restaurant-External-ID": conn.ExternalID,
		}, &batch); err != nil {
			return nil, err
		}

		out = append(out, batch...)
		if len(batch) < toastPageSize {
			break
		}
	}
	return out, nil
}

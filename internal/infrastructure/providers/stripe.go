package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	pkgcurrency "github.com/tu-usuario/fondea-api/pkg/currency"
)

var _ ports.ProviderAdapter = (*StripeAdapter)(nil)

const (
	stripeAPIURL   = "https://api.stripe.com"
	stripePageSize = 100
)

// StripeAdapter adaptador de la API de Stripe (charges, refunds, customers).
//
// Mapeo de campos: amount (entero en unidad menor) -> GrossAmount dividido
// por el exponente de la moneda; status != "succeeded" -> IsCancelled;
// customer -> CustomerID. Stripe no expone descuentos a nivel charge: 0.
type StripeAdapter struct {
	client  *apiClient
	baseURL string
}

// NewStripeAdapter construye el adaptador.
func NewStripeAdapter() *StripeAdapter {
	return &StripeAdapter{client: newAPIClient(entity.ProviderStripe), baseURL: stripeAPIURL}
}

// Provider implementa ports.ProviderAdapter.
func (a *StripeAdapter) Provider() string { return entity.ProviderStripe }

// ── Formas crudas ─────────────────────────────────────────────────────────────

type stripeCharge struct {
	ID       string `json:"id"`
	Created  int64  `json:"created"` // epoch segundos
	Amount   int64  `json:"amount"`  // unidad menor
	Currency string `json:"currency"`
	Status   string `json:"status"` // succeeded | pending | failed
	Customer string `json:"customer"`
}

type stripeRefund struct {
	ID       string `json:"id"`
	Charge   string `json:"charge"`
	Amount   int64  `json:"amount"`
	Created  int64  `json:"created"`
	Currency string `json:"currency"`
}

type stripeCustomer struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
}

type stripeList[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// FetchOrders descarga charges del rango; paginación por cursor
// (starting_after = último id) hasta que has_more sea false.
func (a *StripeAdapter) FetchOrders(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedOrder, error) {
	var out []entity.NormalizedOrder
	err := stripePaginate(ctx, a, conn, "/v1/charges", rng, true, func(c stripeCharge) string {
		cur := pkgcurrency.Normalize(c.Currency)
		out = append(out, entity.NormalizedOrder{
			ID:          c.ID,
			CreatedAt:   epochUTC(c.Created),
			GrossAmount: pkgcurrency.MinorToMajor(c.Amount, cur),
			Currency:    cur,
			IsCancelled: c.Status != "succeeded",
			CustomerID:  c.Customer,
		})
		return c.ID
	})
	return out, err
}

// FetchRefunds descarga refunds del rango desde su endpoint propio; el
// reembolso referencia al charge, que puede no estar en la ventana descargada.
func (a *StripeAdapter) FetchRefunds(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedRefund, error) {
	var out []entity.NormalizedRefund
	err := stripePaginate(ctx, a, conn, "/v1/refunds", rng, true, func(r stripeRefund) string {
		out = append(out, entity.NormalizedRefund{
			ID:        r.ID,
			OrderID:   r.Charge,
			CreatedAt: epochUTC(r.Created),
			Amount:    pkgcurrency.MinorToMajor(r.Amount, pkgcurrency.Normalize(r.Currency)),
		})
		return r.ID
	})
	return out, err
}

// FetchCustomers descarga el directorio completo de customers (sin filtro de
// fecha: la clasificación necesita también a los anteriores a la ventana).
func (a *StripeAdapter) FetchCustomers(ctx context.Context, conn *entity.Connection, _ ports.DateRange) ([]entity.NormalizedCustomer, error) {
	var out []entity.NormalizedCustomer
	err := stripePaginate(ctx, a, conn, "/v1/customers", ports.DateRange{}, false, func(c stripeCustomer) string {
		out = append(out, entity.NormalizedCustomer{
			ID:        c.ID,
			CreatedAt: epochUTC(c.Created),
		})
		return c.ID
	})
	return out, err
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// stripePaginate recorre un endpoint de lista completo aplicando el cursor
// starting_after; each devuelve el id del elemento para el siguiente cursor.
func stripePaginate[T any](
	ctx context.Context,
	a *StripeAdapter,
	conn *entity.Connection,
	path string,
	rng ports.DateRange,
	filterByCreated bool,
	each func(T) string,
) error {
	startingAfter := ""
	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("limit", fmt.Sprintf("%d", stripePageSize))
		if filterByCreated {
			params.Set("created[gte]", fmt.Sprintf("%d", rng.Start.Unix()))
			params.Set("created[lt]", fmt.Sprintf("%d", rng.End.Unix()))
		}
		if startingAfter != "" {
			params.Set("starting_after", startingAfter)
		}

		var resp stripeList[T]
		_, err := a.client.getJSON(ctx, a.baseURL+path+"?"+params.Encode(), map[string]string{
			"Authorization": "Bearer " + conn.AccessToken,
		}, &resp)
		if err != nil {
			return err
		}

		for _, item := range resp.Data {
			startingAfter = each(item)
		}
		if !resp.HasMore || len(resp.Data) == 0 {
			return nil
		}
	}
	return nil
}

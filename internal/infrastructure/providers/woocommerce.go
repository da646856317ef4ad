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

var _ ports.ProviderAdapter = (*WooCommerceAdapter)(nil)

const (
	wooPageSize = 100

	// wooMaxRefundOrders los reembolsos requieren una llamada por orden: se
	// acota el detalle a las órdenes más recientes para respetar los rate
	// limits de las tiendas WordPress. Gap de completitud documentado.
	wooMaxRefundOrders = 100
)

// WooCommerceAdapter adaptador de la WooCommerce REST API v3.
//
// Mapeo de campos: total (string unidad mayor) -> GrossAmount;
// discount_total -> DiscountAmount; status "cancelled"/"trash" ->
// IsCancelled; customer_id (0 = invitado) -> CustomerID. La autenticación
// usa consumer key/secret por query string (conn.AccessToken/APISecret);
// conn.ShopDomain es la URL base de la tienda.
type WooCommerceAdapter struct {
	client *apiClient
}

// NewWooCommerceAdapter construye el adaptador.
func NewWooCommerceAdapter() *WooCommerceAdapter {
	return &WooCommerceAdapter{client: newAPIClient(entity.ProviderWooCommerce)}
}

// Provider implementa ports.ProviderAdapter.
func (a *WooCommerceAdapter) Provider() string { return entity.ProviderWooCommerce }

// ── Formas crudas ─────────────────────────────────────────────────────────────

type wooOrder struct {
	ID             int64  `json:"id"`
	DateCreatedGMT string `json:"date_created_gmt"` // sin zona: es UTC
	Total          string `json:"total"`
	DiscountTotal  string `json:"discount_total"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	CustomerID     int64  `json:"customer_id"`
}

type wooRefund struct {
	ID             int64  `json:"id"`
	DateCreatedGMT string `json:"date_created_gmt"`
	Total          string `json:"total"` // negativo en la API
}

type wooCustomer struct {
	ID             int64  `json:"id"`
	DateCreatedGMT string `json:"date_created_gmt"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// FetchOrders descarga órdenes del rango; paginación por número de página
// hasta recibir una página incompleta.
func (a *WooCommerceAdapter) FetchOrders(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedOrder, error) {
	raw, err := a.fetchRawOrders(ctx, conn, rng)
	if err != nil {
		return nil, err
	}

	out := make([]entity.NormalizedOrder, 0, len(raw))
	for _, o := range raw {
		customerID := ""
		if o.CustomerID != 0 {
			customerID = fmt.Sprintf("%d", o.CustomerID)
		}
		out = append(out, entity.NormalizedOrder{
			ID:             fmt.Sprintf("%d", o.ID),
			CreatedAt:      wooTime(o.DateCreatedGMT),
			GrossAmount:    toDecimal(o.Total),
			Currency:       pkgcurrency.Normalize(o.Currency),
			DiscountAmount: toDecimal(o.DiscountTotal),
			IsCancelled:    o.Status == "cancelled" || o.Status == "trash",
			CustomerID:     customerID,
		})
	}
	return out, nil
}

// FetchRefunds consulta el endpoint de reembolsos orden por orden, acotado a
// las wooMaxRefundOrders órdenes más recientes del rango (gap documentado:
// no toda orden descargada tiene sus reembolsos).
func (a *WooCommerceAdapter) FetchRefunds(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedRefund, error) {
	raw, err := a.fetchRawOrders(ctx, conn, rng)
	if err != nil {
		return nil, err
	}
	if len(raw) > wooMaxRefundOrders {
		// La API devuelve órdenes descendentes por fecha: el prefijo son las
		// más recientes.
		raw = raw[:wooMaxRefundOrders]
	}

	var out []entity.NormalizedRefund
	for _, o := range raw {
		var refunds []wooRefund
		u := fmt.Sprintf("%s/wp-json/wc/v3/orders/%d/refunds?%s", a.baseURL(conn), o.ID, a.auth(conn).Encode())
		if _, err := a.client.getJSON(ctx, u, nil, &refunds); err != nil {
			return nil, err
		}
		for _, r := range refunds {
			out = append(out, entity.NormalizedRefund{
				ID:        fmt.Sprintf("%d", r.ID),
				OrderID:   fmt.Sprintf("%d", o.ID),
				CreatedAt: wooTime(r.DateCreatedGMT),
				Amount:    toDecimal(r.Total).Abs(),
			})
		}
	}
	return out, nil
}

// FetchCustomers descarga el directorio de clientes registrados.
func (a *WooCommerceAdapter) FetchCustomers(ctx context.Context, conn *entity.Connection, _ ports.DateRange) ([]entity.NormalizedCustomer, error) {
	var out []entity.NormalizedCustomer
	for page := 1; page <= maxPages; page++ {
		params := a.auth(conn)
		params.Set("per_page", fmt.Sprintf("%d", wooPageSize))
		params.Set("page", fmt.Sprintf("%d", page))

		var batch []wooCustomer
		u := a.baseURL(conn) + "/wp-json/wc/v3/customers?" + params.Encode()
		if _, err := a.client.getJSON(ctx, u, nil, &batch); err != nil {
			return nil, err
		}
		for _, c := range batch {
			out = append(out, entity.NormalizedCustomer{
				ID:        fmt.Sprintf("%d", c.ID),
				CreatedAt: wooTime(c.DateCreatedGMT),
			})
		}
		if len(batch) < wooPageSize {
			break
		}
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (a *WooCommerceAdapter) fetchRawOrders(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]wooOrder, error) {
	var out []wooOrder
	for page := 1; page <= maxPages; page++ {
		params := a.auth(conn)
		params.Set("after", rng.Start.Format(time.RFC3339))
		params.Set("before", rng.End.Format(time.RFC3339))
		params.Set("per_page", fmt.Sprintf("%d", wooPageSize))
		params.Set("page", fmt.Sprintf("%d", page))
		params.Set("status", "any")

		var batch []wooOrder
		u := a.baseURL(conn) + "/wp-json/wc/v3/orders?" + params.Encode()
		if _, err := a.client.getJSON(ctx, u, nil, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < wooPageSize {
			break
		}
	}
	return out, nil
}

func (a *WooCommerceAdapter) auth(conn *entity.Connection) url.Values {
	params := url.Values{}
	params.Set("consumer_key", conn.AccessToken)
	params.Set("consumer_secret", conn.APISecret)
	return params
}

func (a *WooCommerceAdapter) baseURL(conn *entity.Connection) string {
	if strings.HasPrefix(conn.ShopDomain, "http://") || strings.HasPrefix(conn.ShopDomain, "https://") {
		return strings.TrimRight(conn.ShopDomain, "/")
	}
	return "https://" + strings.TrimRight(conn.ShopDomain, "/")
}

// wooTime parsea date_created_gmt, que llega sin sufijo de zona pero es UTC.
func wooTime(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return toTime(s) // por si la tienda devuelve RFC3339 completo
	}
	return t.UTC()
}

package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
)

// Verificar en tiempo de compilación que el adaptador implementa el puerto.
var _ ports.ProviderAdapter = (*ShopifyAdapter)(nil)

const shopifyPageSize = 250 // máximo de la Admin API

// ShopifyAdapter adaptador de la Shopify Admin REST API.
//
// Mapeo de campos: total_price -> GrossAmount (ya en unidad mayor),
// total_discounts -> DiscountAmount, cancelled_at != null -> IsCancelled,
// customer.id -> CustomerID. Los reembolsos vienen anidados en la orden y se
// aplanan a registros independientes con el id de la orden padre.
type ShopifyAdapter struct {
	client     *apiClient
	apiVersion string // ej. "2024-01"
}

// NewShopifyAdapter construye el adaptador.
func NewShopifyAdapter(apiVersion string) *ShopifyAdapter {
	return &ShopifyAdapter{client: newAPIClient(entity.ProviderShopify), apiVersion: apiVersion}
}

// Provider implementa ports.ProviderAdapter.
func (a *ShopifyAdapter) Provider() string { return entity.ProviderShopify }

// ── Formas crudas de la Admin API ─────────────────────────────────────────────

type shopifyOrder struct {
	ID             int64           `json:"id"`
	CreatedAt      string          `json:"created_at"`
	TotalPrice     string          `json:"total_price"`
	Currency       string          `json:"currency"`
	TotalDiscounts string          `json:"total_discounts"`
	CancelledAt    *string         `json:"cancelled_at"`
	Customer       *shopifyID      `json:"customer"`
	Refunds        []shopifyRefund `json:"refunds"`
}

type shopifyID struct {
	ID int64 `json:"id"`
}

type shopifyRefund struct {
	ID           int64                `json:"id"`
	CreatedAt    string               `json:"created_at"`
	Transactions []shopifyTransaction `json:"transactions"`
}

type shopifyTransaction struct {
	Amount string `json:"amount"`
}

type shopifyOrdersResponse struct {
	Orders []shopifyOrder `json:"orders"`
}

type shopifyCustomer struct {
	ID          int64  `json:"id"`
	CreatedAt   string `json:"created_at"`
	OrdersCount int    `json:"orders_count"`
	TotalSpent  string `json:"total_spent"`
}

type shopifyCustomersResponse struct {
	Customers []shopifyCustomer `json:"customers"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// FetchOrders descarga órdenes del rango con paginación por Link header
// (page_info), estilo cursor de la Admin API.
func (a *ShopifyAdapter) FetchOrders(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedOrder, error) {
	raw, err := a.fetchRawOrders(ctx, conn, rng)
	if err != nil {
		return nil, err
	}

	out := make([]entity.NormalizedOrder, 0, len(raw))
	for _, o := range raw {
		customerID := ""
		if o.Customer != nil && o.Customer.ID != 0 {
			customerID = fmt.Sprintf("%d", o.Customer.ID)
		}
		out = append(out, entity.NormalizedOrder{
			ID:             fmt.Sprintf("%d", o.ID),
			CreatedAt:      toTime(o.CreatedAt),
			GrossAmount:    toDecimal(o.TotalPrice),
			Currency:       o.Currency,
			DiscountAmount: toDecimal(o.TotalDiscounts),
			IsCancelled:    o.CancelledAt != nil && *o.CancelledAt != "",
			CustomerID:     customerID,
		})
	}
	return out, nil
}

// FetchRefunds aplana los reembolsos anidados en las órdenes del rango. El
// monto del reembolso es la suma de sus transacciones.
func (a *ShopifyAdapter) FetchRefunds(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]entity.NormalizedRefund, error) {
	raw, err := a.fetchRawOrders(ctx, conn, rng)
	if err != nil {
		return nil, err
	}

	var out []entity.NormalizedRefund
	for _, o := range raw {
		for _, r := range o.Refunds {
			total := decimal.Zero
			for _, tx := range r.Transactions {
				total = total.Add(toDecimal(tx.Amount))
			}
			out = append(out, entity.NormalizedRefund{
				ID:        fmt.Sprintf("%d", r.ID),
				OrderID:   fmt.Sprintf("%d", o.ID),
				CreatedAt: toTime(r.CreatedAt),
				Amount:    total,
			})
		}
	}
	return out, nil
}

// FetchCustomers descarga el directorio de clientes (sin filtro de fecha: la
// clasificación necesita también a los creados antes de la ventana).
func (a *ShopifyAdapter) FetchCustomers(ctx context.Context, conn *entity.Connection, _ ports.DateRange) ([]entity.NormalizedCustomer, error) {
	var out []entity.NormalizedCustomer

	next := fmt.Sprintf("%s/admin/api/%s/customers.json?limit=%d", a.baseURL(conn), a.apiVersion, shopifyPageSize)
	for page := 0; next != "" && page < maxPages; page++ {
		var resp shopifyCustomersResponse
		headers, err := a.client.getJSON(ctx, next, a.headers(conn), &resp)
		if err != nil {
			return nil, err
		}
		for _, c := range resp.Customers {
			out = append(out, entity.NormalizedCustomer{
				ID:          fmt.Sprintf("%d", c.ID),
				CreatedAt:   toTime(c.CreatedAt),
				OrdersCount: c.OrdersCount,
				TotalSpent:  toDecimal(c.TotalSpent),
			})
		}
		next = shopifyNextLink(headers.Get("Link"))
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (a *ShopifyAdapter) fetchRawOrders(ctx context.Context, conn *entity.Connection, rng ports.DateRange) ([]shopifyOrder, error) {
	params := url.Values{}
	params.Set("status", "any")
	params.Set("limit", fmt.Sprintf("%d", shopifyPageSize))
	params.Set("created_at_min", rng.Start.Format("2006-01-02T15:04:05Z07:00"))
	params.Set("created_at_max", rng.End.Format("2006-01-02T15:04:05Z07:00"))

	var out []shopifyOrder
	next := fmt.Sprintf("%s/admin/api/%s/orders.json?%s", a.baseURL(conn), a.apiVersion, params.Encode())
	for page := 0; next != "" && page < maxPages; page++ {
		var resp shopifyOrdersResponse
		headers, err := a.client.getJSON(ctx, next, a.headers(conn), &resp)
		if err != nil {
			return nil, err
		}
		out = append(out, resp.Orders...)
		next = shopifyNextLink(headers.Get("Link"))
	}
	return out, nil
}

func (a *ShopifyAdapter) headers(conn *entity.Connection) map[string]string {
	return map[string]string{"X-Shopify-Access-Token": conn.AccessToken}
}

// baseURL arma la URL de la tienda; ShopDomain con esquema explícito se
// respeta (tests de integración apuntan a servidores locales).
func (a *ShopifyAdapter) baseURL(conn *entity.Connection) string {
	if strings.HasPrefix(conn.ShopDomain, "http://") || strings.HasPrefix(conn.ShopDomain, "https://") {
		return strings.TrimRight(conn.ShopDomain, "/")
	}
	return "https://" + conn.ShopDomain
}

// shopifyNextLink extrae la URL rel="next" del header Link de paginación.
// Formato: <https://...page_info=xyz>; rel="next", <...>; rel="previous"
func shopifyNextLink(link string) string {
	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}

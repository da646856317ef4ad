package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/pkg/config"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func configForTest() config.ProvidersConfig {
	return config.ProvidersConfig{
		ShopifyAPIVersion: "2024-01",
		SquareEnv:         "sandbox",
		PayPalEnv:         "sandbox",
		ToastBaseURL:      "https://ws-sandbox-api.toasttab.com",
		PlaidEnv:          "sandbox",
	}
}

func testRange() ports.DateRange {
	return ports.DateRange{
		Start: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ── Shopify ───────────────────────────────────────────────────────────────────

func TestShopify_OrdenesConPaginacionLink(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "token-123", r.Header.Get("X-Shopify-Access-Token"), "debe enviar el access token")

		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/admin/api/2024-01/orders.json?page_info=abc>; rel="next"`, r.Host))
			fmt.Fprint(w, `{"orders":[
				{"id":1001,"created_at":"2026-07-10T12:00:00Z","total_price":"150.00","currency":"USD","total_discounts":"10.00","customer":{"id":77}},
				{"id":1002,"created_at":"2026-07-11T12:00:00Z","total_price":"50.00","currency":"USD","cancelled_at":"2026-07-12T00:00:00Z"}
			]}`)
			return
		}
		fmt.Fprint(w, `{"orders":[{"id":1003,"created_at":"2026-07-20T12:00:00Z","total_price":"99.50","currency":"USD"}]}`)
	}))
	defer srv.Close()

	adapter := NewShopifyAdapter("2024-01")
	conn := &entity.Connection{Provider: entity.ProviderShopify, AccessToken: "token-123", ShopDomain: srv.URL}

	orders, err := adapter.FetchOrders(context.Background(), conn, testRange())
	require.NoError(t, err)
	require.Len(t, orders, 3, "debe unir las dos páginas")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	assert.Equal(t, "1001", orders[0].ID)
	assert.True(t, orders[0].GrossAmount.Equal(dec("150.00")))
	assert.True(t, orders[0].DiscountAmount.Equal(dec("10.00")))
	assert.Equal(t, "77", orders[0].CustomerID)
	assert.False(t, orders[0].IsCancelled)

	assert.True(t, orders[1].IsCancelled, "cancelled_at no nulo debe marcar la orden")
	assert.Empty(t, orders[1].CustomerID, "sin cliente debe quedar vacío")
}

func TestShopify_ReembolsosAplanados(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"orders":[{
			"id":500,"created_at":"2026-07-05T00:00:00Z","total_price":"200.00","currency":"USD",
			"refunds":[{"id":9,"created_at":"2026-07-08T00:00:00Z","transactions":[{"amount":"30.00"},{"amount":"12.50"}]}]
		}]}`)
	}))
	defer srv.Close()

	adapter := NewShopifyAdapter("2024-01")
	conn := &entity.Connection{Provider: entity.ProviderShopify, ShopDomain: srv.URL}

	refunds, err := adapter.FetchRefunds(context.Background(), conn, testRange())
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, "9", refunds[0].ID)
	assert.Equal(t, "500", refunds[0].OrderID, "debe conservar el id de la orden padre")
	assert.True(t, refunds[0].Amount.Equal(dec("42.50")), "el monto es la suma de las transacciones")
}

func TestShopify_ErrorHTTPDevuelveProviderFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"errors":"rate limited"}`)
	}))
	defer srv.Close()

	adapter := NewShopifyAdapter("2024-01")
	conn := &entity.Connection{Provider: entity.ProviderShopify, ShopDomain: srv.URL}

	_, err := adapter.FetchOrders(context.Background(), conn, testRange())
	require.Error(t, err)

	var fetchErr *domain.ProviderFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, entity.ProviderShopify, fetchErr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, fetchErr.HTTPStatus)
}

// ── Stripe ────────────────────────────────────────────────────────────────────

func TestStripe_UnidadMenorYCursor(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.Equal(t, "/v1/charges", r.URL.Path)

		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			assert.Empty(t, r.URL.Query().Get("starting_after"), "la primera página no lleva cursor")
			fmt.Fprint(w, `{"has_more":true,"data":[
				{"id":"ch_1","created":1751500800,"amount":12550,"currency":"usd","status":"succeeded","customer":"cus_9"},
				{"id":"ch_2","created":1751587200,"amount":5000,"currency":"jpy","status":"failed"}
			]}`)
			return
		}
		assert.Equal(t, "ch_2", r.URL.Query().Get("starting_after"), "el cursor es el último id de la página anterior")
		fmt.Fprint(w, `{"has_more":false,"data":[{"id":"ch_3","created":1751673600,"amount":100,"currency":"usd","status":"succeeded"}]}`)
	}))
	defer srv.Close()

	adapter := NewStripeAdapter()
	adapter.baseURL = srv.URL
	conn := &entity.Connection{Provider: entity.ProviderStripe, AccessToken: "sk_test"}

	orders, err := adapter.FetchOrders(context.Background(), conn, testRange())
	require.NoError(t, err)
	require.Len(t, orders, 3)

	assert.True(t, orders[0].GrossAmount.Equal(dec("125.50")), "12550 centavos USD son 125.50")
	assert.Equal(t, "USD", orders[0].Currency, "la moneda se normaliza a mayúsculas")
	assert.Equal(t, "cus_9", orders[0].CustomerID)

	assert.True(t, orders[1].GrossAmount.Equal(dec("5000")), "JPY no tiene unidad menor")
	assert.True(t, orders[1].IsCancelled, "status != succeeded se trata como cancelada")
}

func TestStripe_ReembolsosDesdeSuEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/refunds", r.URL.Path)
		fmt.Fprint(w, `{"has_more":false,"data":[{"id":"re_1","charge":"ch_1","created":1751760000,"amount":999,"currency":"usd"}]}`)
	}))
	defer srv.Close()

	adapter := NewStripeAdapter()
	adapter.baseURL = srv.URL
	conn := &entity.Connection{Provider: entity.ProviderStripe, AccessToken: "sk_test"}

	refunds, err := adapter.FetchRefunds(context.Background(), conn, testRange())
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, "ch_1", refunds[0].OrderID)
	assert.True(t, refunds[0].Amount.Equal(dec("9.99")))
}

// ── WooCommerce ───────────────────────────────────────────────────────────────

func TestWooCommerce_OrdenesYEstadoCancelado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wc/v3/orders", r.URL.Path)
		require.Equal(t, "ck_abc", r.URL.Query().Get("consumer_key"), "autenticación por query string")
		require.Equal(t, "cs_def", r.URL.Query().Get("consumer_secret"))

		fmt.Fprint(w, `[
			{"id":10,"date_created_gmt":"2026-07-03T09:30:00","total":"80.00","discount_total":"5.00","currency":"eur","status":"completed","customer_id":3},
			{"id":11,"date_created_gmt":"2026-07-04T09:30:00","total":"40.00","currency":"eur","status":"cancelled","customer_id":0}
		]`)
	}))
	defer srv.Close()

	adapter := NewWooCommerceAdapter()
	conn := &entity.Connection{Provider: entity.ProviderWooCommerce, AccessToken: "ck_abc", APISecret: "cs_def", ShopDomain: srv.URL}

	orders, err := adapter.FetchOrders(context.Background(), conn, testRange())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "EUR", orders[0].Currency)
	assert.Equal(t, "3", orders[0].CustomerID)
	assert.Equal(t, time.Date(2026, 7, 3, 9, 30, 0, 0, time.UTC), orders[0].CreatedAt, "date_created_gmt es UTC implícito")
	assert.True(t, orders[0].DiscountAmount.Equal(dec("5.00")))

	assert.True(t, orders[1].IsCancelled)
	assert.Empty(t, orders[1].CustomerID, "customer_id 0 es un invitado")
}

// ── Plaid ─────────────────────────────────────────────────────────────────────

func TestPlaid_SoloAbonosComoOrdenes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions/get", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"total_transactions":3,"transactions":[
			{"transaction_id":"tx_1","date":"2026-07-02","amount":-350.25,"iso_currency_code":"USD"},
			{"transaction_id":"tx_2","date":"2026-07-03","amount":120.00,"iso_currency_code":"USD"},
			{"transaction_id":"tx_3","date":"2026-07-04","amount":-10.00,"iso_currency_code":"USD","pending":true}
		]}`)
	}))
	defer srv.Close()

	adapter := NewPlaidAdapter("production")
	adapter.defaultBase = srv.URL
	conn := &entity.Connection{Provider: entity.ProviderPlaid, ExternalID: "client-id", APISecret: "secret", AccessToken: "access-token"}

	orders, err := adapter.FetchOrders(context.Background(), conn, testRange())
	require.NoError(t, err)
	require.Len(t, orders, 1, "débitos y pendientes se descartan")
	assert.Equal(t, "tx_1", orders[0].ID)
	assert.True(t, orders[0].GrossAmount.Equal(dec("350.25")), "el abono negativo se invierte a ingreso positivo")

	refunds, err := adapter.FetchRefunds(context.Background(), conn, testRange())
	require.NoError(t, err)
	assert.Empty(t, refunds)
}

// ── Registry ──────────────────────────────────────────────────────────────────

func TestRegistry_CubreTodosLosProveedores(t *testing.T) {
	reg := NewRegistry(configForTest())
	require.Len(t, reg, len(entity.KnownProviders))
	for _, p := range entity.KnownProviders {
		adapter, ok := reg[p]
		require.True(t, ok, "falta adaptador para %s", p)
		assert.Equal(t, p, adapter.Provider())
	}
}

// El entorno de la conexión manda sobre el default de la aplicación: una
// conexión sandbox nunca debe golpear el host productivo aunque el registry
// se haya construido con "production", y viceversa.
func TestEntornoDeConexion_ResuelveHost(t *testing.T) {
	square := NewSquareAdapter("production")
	paypal := NewPayPalAdapter("production")
	plaid := NewPlaidAdapter("production")

	tests := []struct {
		name string
		env  string
		base func(*entity.Connection) string
		want string
	}{
		{"square sandbox", entity.EnvSandbox, square.base, squareSandboxURL},
		{"square default", "", square.base, squareProdURL},
		{"paypal sandbox", entity.EnvSandbox, paypal.base, paypalSandboxURL},
		{"paypal default", "", paypal.base, paypalProdURL},
		{"plaid sandbox", entity.EnvSandbox, plaid.base, plaidSandboxURL},
		{"plaid default", "", plaid.base, plaidProdURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &entity.Connection{Environment: tt.env}
			assert.Equal(t, tt.want, tt.base(conn))
		})
	}

	// Fijado al revés: conexión productiva sobre default sandbox.
	squareSbx := NewSquareAdapter("sandbox")
	assert.Equal(t, squareProdURL,
		squareSbx.base(&entity.Connection{Environment: entity.EnvProduction}))
}

// hostCaptureTransport registra el host de cada petición saliente y responde
// un JSON vacío, sin tocar la red.
type hostCaptureTransport struct {
	hosts []string
}

func (tr *hostCaptureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tr.hosts = append(tr.hosts, req.URL.Host)
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(`{}`)),
		Request:    req,
	}, nil
}

// Prueba de alambre: la petición de una conexión sandbox sale hacia el host
// sandbox, no hacia el default productivo del adaptador.
func TestSquare_ConexionSandboxUsaHostSandbox(t *testing.T) {
	capture := &hostCaptureTransport{}
	adapter := NewSquareAdapter("production")
	adapter.client.httpClient = &http.Client{Transport: capture}

	conn := &entity.Connection{
		Provider:    entity.ProviderSquare,
		AccessToken: "sq-token",
		Environment: entity.EnvSandbox,
	}

	_, err := adapter.FetchOrders(context.Background(), conn, testRange())
	require.NoError(t, err)
	require.NotEmpty(t, capture.hosts)
	assert.Equal(t, "connect.squareupsandbox.com", capture.hosts[0],
		"la petición debe dirigirse al host sandbox")
}

// ── Cliente compartido ────────────────────────────────────────────────────────

func TestAPIClient_ContextoCanceladoSeAnota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := newAPIClient("stripe")
	var out map[string]any
	_, err := c.getJSON(ctx, srv.URL, nil, &out)
	require.Error(t, err)

	var fetchErr *domain.ProviderFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Contains(t, fetchErr.Error(), "stripe")
}

package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/fondea-api/internal/application/dto"
	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeConnRepo struct {
	conns []*entity.Connection
}

func (r *fakeConnRepo) Create(*entity.Connection) error            { return nil }
func (r *fakeConnRepo) GetByID(string) (*entity.Connection, error) { return nil, nil }
func (r *fakeConnRepo) ListActiveByMerchant(string) ([]*entity.Connection, error) {
	return r.conns, nil
}
func (r *fakeConnRepo) ListByMerchant(string, int, int) ([]*entity.Connection, error) {
	return r.conns, nil
}
func (r *fakeConnRepo) Deactivate(string) error { return nil }

// fakeAdapter devuelve datos fijos o un error, y cuenta llamadas a FetchOrders.
type fakeAdapter struct {
	name       string
	orders     []entity.NormalizedOrder
	refunds    []entity.NormalizedRefund
	err        error
	refundsErr error
	fetchCalls int
}

func (a *fakeAdapter) Provider() string { return a.name }

func (a *fakeAdapter) FetchOrders(_ context.Context, _ *entity.Connection, _ ports.DateRange) ([]entity.NormalizedOrder, error) {
	a.fetchCalls++
	if a.err != nil {
		return nil, a.err
	}
	return a.orders, nil
}

func (a *fakeAdapter) FetchRefunds(_ context.Context, _ *entity.Connection, _ ports.DateRange) ([]entity.NormalizedRefund, error) {
	if a.refundsErr != nil {
		return nil, a.refundsErr
	}
	return a.refunds, nil
}

func (a *fakeAdapter) FetchCustomers(_ context.Context, _ *entity.Connection, _ ports.DateRange) ([]entity.NormalizedCustomer, error) {
	return nil, nil
}

type fakeCache struct {
	store map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	return c.store[key], nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.store[key] = value
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

func recentOrder(id, amount string) entity.NormalizedOrder {
	return entity.NormalizedOrder{
		ID:          id,
		CreatedAt:   time.Now().UTC().Add(-24 * time.Hour),
		GrossAmount: decimal.RequireFromString(amount),
		Currency:    "USD",
	}
}

func connFor(provider string) *entity.Connection {
	return &entity.Connection{ID: provider + "-conn", MerchantID: "m-1", Provider: provider, Active: true}
}

func buildUC(repo *fakeConnRepo, adapters map[string]ports.ProviderAdapter, cache ports.KPICache) *KPIUseCase {
	return NewKPIUseCase(repo, adapters, cache, time.Minute, "America/Bogota", testLogger())
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestKPIGet_FusionaConexiones(t *testing.T) {
	repo := &fakeConnRepo{conns: []*entity.Connection{connFor("shopify"), connFor("stripe")}}
	adapters := map[string]ports.ProviderAdapter{
		"shopify": &fakeAdapter{name: "shopify", orders: []entity.NormalizedOrder{recentOrder("s1", "100")}},
		"stripe":  &fakeAdapter{name: "stripe", orders: []entity.NormalizedOrder{recentOrder("c1", "50")}},
	}
	uc := buildUC(repo, adapters, nil)

	out, err := uc.Get(context.Background(), "m-1", dto.KPIRequest{})
	require.NoError(t, err)
	require.NotNil(t, out.Result)

	assert.Equal(t, 2, out.Result.OrderCount, "las órdenes de ambas conexiones se fusionan")
	assert.True(t, out.Result.GrossSales.Equal(decimal.RequireFromString("150")))
	assert.Empty(t, out.Warnings)
}

func TestKPIGet_FallaParcialDegradaAWarning(t *testing.T) {
	repo := &fakeConnRepo{conns: []*entity.Connection{connFor("shopify"), connFor("toast")}}
	adapters := map[string]ports.ProviderAdapter{
		"shopify": &fakeAdapter{name: "shopify", orders: []entity.NormalizedOrder{recentOrder("s1", "100")}},
		"toast": &fakeAdapter{name: "toast", err: &domain.ProviderFetchError{
			Provider: "toast", HTTPStatus: 503, Message: "mantenimiento",
		}},
	}
	uc := buildUC(repo, adapters, nil)

	out, err := uc.Get(context.Background(), "m-1", dto.KPIRequest{})
	require.NoError(t, err, "una conexión viva basta para responder")

	assert.Equal(t, 1, out.Result.OrderCount)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "toast")
}

func TestKPIGet_TodasFallanPropagaError(t *testing.T) {
	repo := &fakeConnRepo{conns: []*entity.Connection{connFor("shopify")}}
	adapters := map[string]ports.ProviderAdapter{
		"shopify": &fakeAdapter{name: "shopify", err: &domain.ProviderFetchError{
			Provider: "shopify", HTTPStatus: 500, Message: "caído",
		}},
	}
	uc := buildUC(repo, adapters, nil)

	_, err := uc.Get(context.Background(), "m-1", dto.KPIRequest{})
	require.Error(t, err)

	var fetchErr *domain.ProviderFetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestKPIGet_SinConexiones(t *testing.T) {
	uc := buildUC(&fakeConnRepo{}, nil, nil)

	_, err := uc.Get(context.Background(), "m-1", dto.KPIRequest{})
	assert.ErrorIs(t, err, domain.ErrNoConnections)
}

func TestKPIGet_ReembolsosFallidosDegradanAVacio(t *testing.T) {
	repo := &fakeConnRepo{conns: []*entity.Connection{connFor("shopify")}}
	adapters := map[string]ports.ProviderAdapter{
		"shopify": &fakeAdapter{
			name:   "shopify",
			orders: []entity.NormalizedOrder{recentOrder("s1", "100")},
			refundsErr: &domain.ProviderFetchError{
				Provider: "shopify", HTTPStatus: 429, Message: "rate limit",
			},
		},
	}
	uc := buildUC(repo, adapters, nil)

	out, err := uc.Get(context.Background(), "m-1", dto.KPIRequest{})
	require.NoError(t, err, "reembolsos incompletos no abortan el cálculo")
	assert.True(t, out.Result.TotalRefunds.IsZero())
	assert.Equal(t, 1, out.Result.OrderCount)
}

func TestKPIGet_SegundaLlamadaSaleDelCache(t *testing.T) {
	adapter := &fakeAdapter{name: "shopify", orders: []entity.NormalizedOrder{recentOrder("s1", "100")}}
	repo := &fakeConnRepo{conns: []*entity.Connection{connFor("shopify")}}
	uc := buildUC(repo, map[string]ports.ProviderAdapter{"shopify": adapter}, newFakeCache())

	first, err := uc.Get(context.Background(), "m-1", dto.KPIRequest{})
	require.NoError(t, err)
	second, err := uc.Get(context.Background(), "m-1", dto.KPIRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, adapter.fetchCalls, "la segunda lectura no toca al proveedor")
	assert.True(t, first.Result.NetSales.Equal(second.Result.NetSales))
}

func TestKPIGet_AdaptadorNoRegistrado(t *testing.T) {
	repo := &fakeConnRepo{conns: []*entity.Connection{connFor("shopify")}}
	uc := buildUC(repo, map[string]ports.ProviderAdapter{}, nil)

	_, err := uc.Get(context.Background(), "m-1", dto.KPIRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adaptador no registrado")
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tu-usuario/fondea-api/internal/application/dto"
	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/internal/domain/kpi"
	"github.com/tu-usuario/fondea-api/internal/domain/repository"
	"github.com/tu-usuario/fondea-api/internal/domain/scoring"
	"github.com/tu-usuario/fondea-api/pkg/logger"
)

// fetchTimeout límite por conexión para el trío orders/refunds/customers.
const fetchTimeout = 60 * time.Second

// KPIUseCase orquesta el cálculo de KPIs de un comercio: carga sus conexiones
// activas, descarga los registros canónicos de cada proveedor en paralelo,
// fusiona y delega en el motor puro. El caché es read-through y opcional.
type KPIUseCase struct {
	connRepo  repository.ConnectionRepository
	adapters  map[string]ports.ProviderAdapter
	cache     ports.KPICache // nil = sin caché
	cacheTTL  time.Duration
	defaultTZ string
	log       *logger.Logger
}

// NewKPIUseCase construye el caso de uso. adapters mapea nombre de proveedor
// a su adaptador; cache puede ser nil.
func NewKPIUseCase(
	connRepo repository.ConnectionRepository,
	adapters map[string]ports.ProviderAdapter,
	cache ports.KPICache,
	cacheTTL time.Duration,
	defaultTZ string,
	log *logger.Logger,
) *KPIUseCase {
	return &KPIUseCase{
		connRepo:  connRepo,
		adapters:  adapters,
		cache:     cache,
		cacheTTL:  cacheTTL,
		defaultTZ: defaultTZ,
		log:       log,
	}
}

// Get calcula (o recupera del caché) los KPIs del comercio para la ventana
// solicitada, terminando en el momento actual.
func (uc *KPIUseCase) Get(ctx context.Context, merchantID string, req dto.KPIRequest) (*dto.KPIResponse, error) {
	windowDays := req.WindowDays
	if windowDays == 0 {
		windowDays = kpi.Window30
	}
	tz := req.Timezone
	if tz == "" {
		tz = uc.defaultTZ
	}

	cacheKey := fmt.Sprintf("kpi:%s:%d:%t:%s", merchantID, windowDays, req.Prior, tz)
	if cached := uc.cacheGet(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	resp, err := uc.ComputeAt(ctx, merchantID, windowDays, req.Prior, tz, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	uc.cacheSet(ctx, cacheKey, resp)
	return resp, nil
}

// Score calcula el puntaje crediticio sobre la ventana de 90 días con
// comparación contra los 90 anteriores.
func (uc *KPIUseCase) Score(ctx context.Context, merchantID, timezone string) (*scoring.Score, error) {
	tz := timezone
	if tz == "" {
		tz = uc.defaultTZ
	}
	resp, err := uc.ComputeAt(ctx, merchantID, kpi.Window90, true, tz, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s := scoring.FromKPI(resp.Result)
	return &s, nil
}

// ComputeAt calcula KPIs con un instante de corte explícito (sin caché).
// Lo usan Get y el attestation builder, que fija now al cierre del mes atestado.
func (uc *KPIUseCase) ComputeAt(
	ctx context.Context,
	merchantID string,
	windowDays int,
	prior bool,
	timezone string,
	now time.Time,
) (*dto.KPIResponse, error) {
	conns, err := uc.connRepo.ListActiveByMerchant(merchantID)
	if err != nil {
		return nil, fmt.Errorf("kpi: conexiones: %w", err)
	}
	if len(conns) == 0 {
		return nil, domain.ErrNoConnections
	}

	priorDays := 0
	if prior {
		priorDays = windowDays
	}

	// El rango de fetch cubre ventana actual + anterior; la clasificación de
	// clientes recurrentes mira todo lo descargado.
	rng := ports.DateRange{
		Start: now.AddDate(0, 0, -(windowDays + priorDays)),
		End:   now,
	}

	orders, refunds, customers, warnings, err := uc.fetchAll(ctx, conns, rng)
	if err != nil {
		return nil, err
	}

	result, err := kpi.Compute(kpi.Input{
		Orders:          orders,
		Refunds:         refunds,
		Customers:       customers,
		Timezone:        timezone,
		WindowDays:      windowDays,
		PriorWindowDays: priorDays,
		Now:             now,
	})
	if err != nil {
		return nil, err
	}

	return &dto.KPIResponse{Result: result, Warnings: warnings}, nil
}

// connFetch resultado del fetch de una conexión.
type connFetch struct {
	provider  string
	orders    []entity.NormalizedOrder
	refunds   []entity.NormalizedRefund
	customers []entity.NormalizedCustomer
	err       error
}

// fetchAll descarga todas las conexiones en paralelo y fusiona. Una conexión
// fallida se degrada a warning mientras al menos una tenga éxito; si todas
// fallan se propaga el error de la primera.
func (uc *KPIUseCase) fetchAll(
	ctx context.Context,
	conns []*entity.Connection,
	rng ports.DateRange,
) (orders []entity.NormalizedOrder, refunds []entity.NormalizedRefund, customers []entity.NormalizedCustomer, warnings []string, err error) {
	results := make(chan connFetch, len(conns))
	for _, conn := range conns {
		go func(c *entity.Connection) {
			results <- uc.fetchConnection(ctx, c, rng)
		}(conn)
	}

	var firstErr error
	ok := 0
	for range conns {
		r := <-results
		if r.err != nil {
			uc.log.Warn().Str("provider", r.provider).Err(r.err).Msg("fetch de proveedor falló")
			warnings = append(warnings, r.err.Error())
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		ok++
		orders = append(orders, r.orders...)
		refunds = append(refunds, r.refunds...)
		customers = append(customers, r.customers...)
	}

	if ok == 0 {
		return nil, nil, nil, nil, firstErr
	}
	return orders, refunds, customers, warnings, nil
}

// fetchConnection lanza orders/refunds/customers de una conexión en paralelo
// (llamadas independientes, sin estado compartido). Orders fallando tumba la
// conexión; refunds y customers degradan a vacío con log.
func (uc *KPIUseCase) fetchConnection(ctx context.Context, conn *entity.Connection, rng ports.DateRange) connFetch {
	adapter, okAdapter := uc.adapters[conn.Provider]
	if !okAdapter {
		return connFetch{provider: conn.Provider, err: &domain.ProviderFetchError{
			Provider: conn.Provider, Message: "adaptador no registrado",
		}}
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	type ordersResult struct {
		rows []entity.NormalizedOrder
		err  error
	}
	type refundsResult struct {
		rows []entity.NormalizedRefund
		err  error
	}
	type customersResult struct {
		rows []entity.NormalizedCustomer
		err  error
	}

	ordCh := make(chan ordersResult, 1)
	refCh := make(chan refundsResult, 1)
	cusCh := make(chan customersResult, 1)

	go func() {
		rows, err := adapter.FetchOrders(ctx, conn, rng)
		ordCh <- ordersResult{rows, err}
	}()
	go func() {
		rows, err := adapter.FetchRefunds(ctx, conn, rng)
		refCh <- refundsResult{rows, err}
	}()
	go func() {
		rows, err := adapter.FetchCustomers(ctx, conn, rng)
		cusCh <- customersResult{rows, err}
	}()

	ord := <-ordCh
	ref := <-refCh
	cus := <-cusCh

	if ord.err != nil {
		return connFetch{provider: conn.Provider, err: ord.err}
	}
	if ref.err != nil {
		// Reembolsos incompletos no abortan el cálculo (degradación documentada).
		uc.log.Warn().Str("provider", conn.Provider).Err(ref.err).Msg("reembolsos degradados a vacío")
		ref.rows = nil
	}
	if cus.err != nil {
		// Clientes son entrada opcional del motor.
		uc.log.Warn().Str("provider", conn.Provider).Err(cus.err).Msg("clientes degradados a vacío")
		cus.rows = nil
	}

	return connFetch{
		provider:  conn.Provider,
		orders:    ord.rows,
		refunds:   ref.rows,
		customers: cus.rows,
	}
}

// ── Caché read-through: sus fallas se registran y se ignoran ──────────────────

func (uc *KPIUseCase) cacheGet(ctx context.Context, key string) *dto.KPIResponse {
	if uc.cache == nil {
		return nil
	}
	raw, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.log.Warn().Err(err).Msg("caché KPI: get falló")
		return nil
	}
	if raw == nil {
		return nil
	}
	var resp dto.KPIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		uc.log.Warn().Err(err).Msg("caché KPI: snapshot corrupto")
		return nil
	}
	return &resp
}

func (uc *KPIUseCase) cacheSet(ctx context.Context, key string, resp *dto.KPIResponse) {
	if uc.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, raw, uc.cacheTTL); err != nil {
		uc.log.Warn().Err(err).Msg("caché KPI: set falló")
	}
}

// Package providers contiene los siete adaptadores de proveedores de
// comercio. Cada adaptador descarga registros nativos vía la API REST del
// proveedor (net/http de la stdlib; sin SDKs oficiales) y los traduce a los
// registros canónicos del dominio. Toda paginación se resuelve aquí: el
// caller nunca ve páginas.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fondea-api/internal/domain"
)

const (
	// Timeout de red por request; el use case impone además un timeout de
	// contexto por conexión.
	requestTimeout = 25 * time.Second

	// maxResponseBytes límite de lectura del cuerpo de respuesta.
	maxResponseBytes = 8 << 20

	// maxPages corte duro de paginación por endpoint: garantiza terminación
	// aunque el proveedor devuelva cursores circulares.
	maxPages = 50
)

// apiClient cliente HTTP compartido por los adaptadores: decodifica JSON y
// convierte toda falla en *domain.ProviderFetchError con el proveedor anotado.
type apiClient struct {
	provider   string
	httpClient *http.Client
}

func newAPIClient(provider string) *apiClient {
	return &apiClient{
		provider:   provider,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// getJSON hace GET, decodifica el cuerpo en out y devuelve los headers de la
// respuesta (algunos proveedores paginan vía Link).
func (c *apiClient) getJSON(ctx context.Context, url string, headers map[string]string, out interface{}) (http.Header, error) {
	return c.doJSON(ctx, http.MethodGet, url, headers, nil, out)
}

// postJSON hace POST con cuerpo JSON y decodifica la respuesta en out.
func (c *apiClient) postJSON(ctx context.Context, url string, headers map[string]string, body, out interface{}) error {
	_, err := c.doJSON(ctx, http.MethodPost, url, headers, body, out)
	return err
}

func (c *apiClient) doJSON(ctx context.Context, method, url string, headers map[string]string, body, out interface{}) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, c.netErr(fmt.Sprintf("serializar request: %v", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, c.netErr(fmt.Sprintf("crear HTTP request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.netErr("timeout o cancelación")
		}
		return nil, c.netErr(fmt.Sprintf("llamada HTTP fallida: %v", err))
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.netErr(fmt.Sprintf("leer respuesta: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ProviderFetchError{
			Provider:   c.provider,
			HTTPStatus: resp.StatusCode,
			Message:    truncate(string(rawBody), 300),
		}
	}

	if out != nil {
		if err := json.Unmarshal(rawBody, out); err != nil {
			return nil, c.netErr(fmt.Sprintf("deserializar respuesta: %v", err))
		}
	}
	return resp.Header, nil
}

func (c *apiClient) netErr(msg string) error {
	return &domain.ProviderFetchError{Provider: c.provider, Message: msg}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ── Coerción defensiva de campos crudos ───────────────────────────────────────
// Los proveedores omiten o anulan campos con frecuencia; los numéricos
// ausentes valen cero y las fechas malformadas dan instante cero, nunca
// un fallo que contamine al motor.

// toDecimal parsea un monto decimal en string; vacío o malformado -> 0.
func toDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// toTime parsea RFC3339 y normaliza a UTC; malformado -> instante cero.
func toTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// epochUTC convierte epoch en segundos a instante UTC; cero queda cero.
func epochUTC(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

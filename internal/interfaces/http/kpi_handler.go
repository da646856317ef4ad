package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/fondea-api/internal/application/dto"
	"github.com/tu-usuario/fondea-api/internal/application/usecase"
	"github.com/tu-usuario/fondea-api/internal/domain"
)

// KPIHandler expone el cálculo de KPIs y el puntaje crediticio.
type KPIHandler struct {
	uc *usecase.KPIUseCase
}

// NewKPIHandler construye el handler de KPIs.
func NewKPIHandler(uc *usecase.KPIUseCase) *KPIHandler {
	return &KPIHandler{uc: uc}
}

// Get godoc
// @Summary      KPIs del comercio para la ventana solicitada
// @Tags         kpis
// @Produce      json
// @Security     BearerAuth
// @Param        window_days  query  int     false  "30 o 90 (default 30)"
// @Param        prior        query  bool    false  "incluir crecimiento contra la ventana anterior"
// @Param        timezone     query  string  false  "zona IANA para el bucketing diario"
// @Success      200  {object}  dto.KPIResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/kpis [get]
func (h *KPIHandler) Get(c *fiber.Ctx) error {
	var req dto.KPIRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.uc.Get(c.Context(), GetMerchantID(c), req)
	if err != nil {
		return kpiError(c, err)
	}
	return c.JSON(out)
}

// Score godoc
// @Summary      Puntaje crediticio sobre la ventana de 90 días
// @Tags         kpis
// @Produce      json
// @Security     BearerAuth
// @Param        timezone  query  string  false  "zona IANA"
// @Success      200  {object}  scoring.Score
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/score [get]
func (h *KPIHandler) Score(c *fiber.Ctx) error {
	out, err := h.uc.Score(c.Context(), GetMerchantID(c), c.Query("timezone"))
	if err != nil {
		return kpiError(c, err)
	}
	return c.JSON(out)
}

// kpiError mapea los errores del pipeline KPI a códigos HTTP: configuración
// inválida del caller → 400, sin conexiones → 422, proveedor caído → 502.
func kpiError(c *fiber.Ctx, err error) error {
	var cfgErr *domain.InvalidKPIConfigError
	if errors.As(err, &cfgErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_KPI_CONFIG", Message: cfgErr.Error()})
	}
	if errors.Is(err, domain.ErrNoConnections) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NO_CONNECTIONS", Message: "el comercio no tiene conexiones activas"})
	}
	var fetchErr *domain.ProviderFetchError
	if errors.As(err, &fetchErr) {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "PROVIDER_UNAVAILABLE", Message: fetchErr.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

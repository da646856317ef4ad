package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/fondea-api/internal/application/dto"
	"github.com/tu-usuario/fondea-api/internal/application/usecase"
	"github.com/tu-usuario/fondea-api/internal/domain"
)

// AttestationHandler emisión, listado y extracto PDF de attestations.
type AttestationHandler struct {
	uc *usecase.AttestationUseCase
}

// NewAttestationHandler construye el handler de attestations.
func NewAttestationHandler(uc *usecase.AttestationUseCase) *AttestationHandler {
	return &AttestationHandler{uc: uc}
}

// Create godoc
// @Summary      Atestar un período mensual
// @Tags         attestations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateAttestationRequest  false  "period YYYY-MM (vacío = mes anterior)"
// @Success      201   {object}  dto.AttestationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/attestations [post]
func (h *AttestationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAttestationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	out, err := h.uc.Create(c.Context(), GetMerchantID(c), in)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "PERIOD_ATTESTED", Message: "el período ya fue atestado"})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PERIOD", Message: "período inválido o aún sin cerrar"})
		}
		return kpiError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar attestations del comercio
// @Tags         attestations
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "límite (default 20)"
// @Param        offset  query  int  false  "offset"
// @Success      200  {object}  dto.AttestationListResponse
// @Router       /api/attestations [get]
func (h *AttestationHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	out, err := h.uc.List(GetMerchantID(c), page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// Statement godoc
// @Summary      Descargar el extracto PDF de una attestation
// @Tags         attestations
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path  string  true  "ID de la attestation"
// @Success      200  {file}  binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/attestations/{id}/statement [get]
func (h *AttestationHandler) Statement(c *fiber.Ctx) error {
	raw, err := h.uc.StatementPDF(GetMerchantID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "attestation no encontrada"})
		}
		if errors.Is(err, domain.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "la attestation pertenece a otro comercio"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="extracto-%s.pdf"`, c.Params("id")))
	return c.Send(raw)
}

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/fondea-api/internal/application/dto"
	"github.com/tu-usuario/fondea-api/internal/application/usecase"
	"github.com/tu-usuario/fondea-api/internal/domain"
)

// ConnectionHandler alta, listado y baja de conexiones de proveedores.
type ConnectionHandler struct {
	uc *usecase.ConnectionUseCase
}

// NewConnectionHandler construye el handler de conexiones.
func NewConnectionHandler(uc *usecase.ConnectionUseCase) *ConnectionHandler {
	return &ConnectionHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar conexión de proveedor
// @Tags         connections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateConnectionRequest  true  "provider, access_token y campos según proveedor"
// @Success      201   {object}  dto.ConnectionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/connections [post]
func (h *ConnectionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateConnectionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Provider == "" || in.AccessToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "provider y access_token son requeridos"})
	}
	out, err := h.uc.Create(GetMerchantID(c), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "UNKNOWN_PROVIDER", Message: "proveedor no soportado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar conexiones del comercio
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "límite (default 20)"
// @Param        offset  query  int  false  "offset"
// @Success      200  {object}  dto.ConnectionListResponse
// @Router       /api/connections [get]
func (h *ConnectionHandler) List(c *fiber.Ctx) error {
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

// Deactivate godoc
// @Summary      Desactivar una conexión
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "ID de la conexión"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/connections/{id} [delete]
func (h *ConnectionHandler) Deactivate(c *fiber.Ctx) error {
	err := h.uc.Deactivate(GetMerchantID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "conexión no encontrada"})
		}
		if errors.Is(err, domain.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "la conexión pertenece a otro comercio"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrNoConnections      = errors.New("el comercio no tiene conexiones activas")
)

// ProviderFetchError falla no recuperable al consultar la API de un proveedor
// (auth rechazada, 5xx, timeout de red). No se reintenta aquí; la política de
// reintentos pertenece al handler que invoca.
type ProviderFetchError struct {
	Provider   string // "shopify", "stripe", ...
	HTTPStatus int    // 0 si la falla fue de red, no HTTP
	Message    string
}

func (e *ProviderFetchError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// InvalidKPIConfigError configuración estructuralmente inválida del motor KPI
// (ventana no soportada, timezone malformado). Nunca se usa para datos
// escasos o campos opcionales ausentes: eso degrada a valores por defecto.
type InvalidKPIConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidKPIConfigError) Error() string {
	return fmt.Sprintf("configuración KPI inválida: %s: %s", e.Field, e.Reason)
}

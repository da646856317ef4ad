package dto

import "time"

// CreateConnectionRequest entrada para registrar la credencial de un proveedor.
// El intercambio OAuth ya ocurrió fuera: aquí llega el material resultante.
type CreateConnectionRequest struct {
	Provider    string `json:"provider" validate:"required"`
	AccessToken string `json:"access_token" validate:"required"`
	APISecret   string `json:"api_secret" validate:"omitempty"`
	ShopDomain  string `json:"shop_domain" validate:"omitempty,max=200"`
	ExternalID  string `json:"external_id" validate:"omitempty,max=100"`
	Environment string `json:"environment" validate:"omitempty,oneof=production sandbox"`
}

// ConnectionResponse salida de una conexión. Nunca expone el token completo:
// solo un sufijo para que el usuario la identifique.
type ConnectionResponse struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ShopDomain  string    `json:"shop_domain,omitempty"`
	ExternalID  string    `json:"external_id,omitempty"`
	Environment string    `json:"environment"`
	TokenHint   string    `json:"token_hint"` // últimos 4 caracteres del token
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConnectionListResponse listado paginado de conexiones.
type ConnectionListResponse struct {
	Connections []ConnectionResponse `json:"connections"`
	Page        PageResponse         `json:"page"`
}

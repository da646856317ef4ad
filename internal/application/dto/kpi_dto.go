package dto

import "github.com/tu-usuario/fondea-api/internal/domain/entity"

// KPIRequest parámetros para GET /api/kpis.
type KPIRequest struct {
	WindowDays int    `query:"window_days"` // 30 | 90; default 30
	Prior      bool   `query:"prior"`       // incluir crecimiento contra la ventana anterior
	Timezone   string `query:"timezone"`    // IANA; default el configurado de la app
}

// KPIResponse respuesta de GET /api/kpis: el KPIResult tal cual lo produce el
// motor, más advertencias de fetch parcial (proveedores que fallaron).
type KPIResponse struct {
	Result   *entity.KPIResult `json:"result"`
	Warnings []string          `json:"warnings,omitempty"` // ej. "toast: HTTP 503: ..."
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/fondea-api/internal/application/auth"
	"github.com/tu-usuario/fondea-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	ConnectionUC  *usecase.ConnectionUseCase
	KPIUC         *usecase.KPIUseCase
	AttestationUC *usecase.AttestationUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Conexiones de proveedores (protegido)
	connections := protected.Group("/connections")
	connectionHandler := NewConnectionHandler(deps.ConnectionUC)
	connections.Post("/", connectionHandler.Create)
	connections.Get("/", connectionHandler.List)
	connections.Delete("/:id", connectionHandler.Deactivate)

	// KPIs y puntaje (protegido)
	kpiHandler := NewKPIHandler(deps.KPIUC)
	protected.Get("/kpis", kpiHandler.Get)
	protected.Get("/score", kpiHandler.Score)

	// Attestations (protegido)
	attestations := protected.Group("/attestations")
	attestationHandler := NewAttestationHandler(deps.AttestationUC)
	attestations.Post("/", attestationHandler.Create)
	attestations.Get("/", attestationHandler.List)
	attestations.Get("/:id/statement", attestationHandler.Statement)
}

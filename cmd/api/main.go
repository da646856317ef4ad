package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/fondea-api/internal/application/auth"
	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/application/usecase"
	infraattest "github.com/tu-usuario/fondea-api/internal/infrastructure/attest"
	infrapdf "github.com/tu-usuario/fondea-api/internal/infrastructure/pdf"
	"github.com/tu-usuario/fondea-api/internal/infrastructure/postgres"
	"github.com/tu-usuario/fondea-api/internal/infrastructure/providers"
	infraredis "github.com/tu-usuario/fondea-api/internal/infrastructure/redis"
	httpRouter "github.com/tu-usuario/fondea-api/internal/interfaces/http"
	"github.com/tu-usuario/fondea-api/pkg/config"
	"github.com/tu-usuario/fondea-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	merchantRepo := postgres.NewMerchantRepository(pool)
	connRepo := postgres.NewConnectionRepository(pool)
	attRepo := postgres.NewAttestationRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Caché de snapshots KPI — opcional: sin Redis la API calcula siempre.
	var cache ports.KPICache
	if cfg.Redis.Addr != "" {
		kpiCache, err := infraredis.NewKPICache(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis no disponible; API sin caché")
		} else {
			defer kpiCache.Close()
			cache = kpiCache
		}
	}

	adapters := providers.NewRegistry(cfg.Providers)
	kpiUC := usecase.NewKPIUseCase(
		connRepo, adapters, cache,
		time.Duration(cfg.Redis.TTLMin)*time.Minute,
		cfg.KPI.DefaultTimezone,
		log.Component("kpi"),
	)

	// Firmador Ed25519 — sin clave configurada las attestations se deshabilitan.
	var signer ports.AttestationSigner
	if cfg.Attest.SigningKeyHex != "" {
		ed, err := infraattest.NewEd25519Signer(cfg.Attest.SigningKeyHex)
		if err != nil {
			log.Fatal().Err(err).Msg("clave de firma de attestations")
		}
		signer = ed
		log.Info().Str("public_key", ed.PublicKeyHex()).Msg("firmador de attestations activo")
	}

	statements := infrapdf.NewMarotoStatementGenerator()
	attestationUC := usecase.NewAttestationUseCase(attRepo, merchantRepo, txRunner, kpiUC, signer, statements)
	connectionUC := usecase.NewConnectionUseCase(connRepo)
	authUC := auth.NewAuthUseCase(userRepo, merchantRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 90, // el cálculo KPI puede tardar lo que tarde el proveedor más lento
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Fondea API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		ConnectionUC:  connectionUC,
		KPIUC:         kpiUC,
		AttestationUC: attestationUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

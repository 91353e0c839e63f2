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
	"github.com/jhoicas/kardex-api/internal/application/auth"
	"github.com/jhoicas/kardex-api/internal/application/catalog"
	"github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/application/report"
	infrapdf "github.com/jhoicas/kardex-api/internal/infrastructure/pdf"
	"github.com/jhoicas/kardex-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/kardex-api/internal/interfaces/http"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
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

	if err := postgres.RunMigrations(cfg.DB, "file://migrations"); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	accountRepo := postgres.NewAccountRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	stockRepo := postgres.NewStockRecordRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledgerUC := ledger.NewUseCase(txRunner, productRepo, stockRepo, movementRepo, ledger.Config{
		MaxRetries:   cfg.Ledger.MaxRetries,
		RetryBackoff: cfg.Ledger.RetryBackoff,
	})
	catalogUC := catalog.NewUseCase(productRepo, ledgerUC)
	authUC := auth.NewUseCase(userRepo, accountRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// PDF: tarjeta kardex por producto
	kardexGenerator := infrapdf.NewMarotoKardexGenerator()
	kardexUC := report.NewKardexUseCase(productRepo, stockRepo, movementRepo, kardexGenerator)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Kardex API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		CatalogUC: catalogUC,
		LedgerUC:  ledgerUC,
		KardexUC:  kardexUC,
		JWTSecret: cfg.JWT.Secret,
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

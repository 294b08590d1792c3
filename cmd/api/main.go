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

	"github.com/jhoicas/bodega-api/internal/application/inventory"
	"github.com/jhoicas/bodega-api/internal/application/movement"
	"github.com/jhoicas/bodega-api/internal/infrastructure/notify"
	"github.com/jhoicas/bodega-api/internal/infrastructure/postgres"
	"github.com/jhoicas/bodega-api/internal/infrastructure/redisstore"
	httpRouter "github.com/jhoicas/bodega-api/internal/interfaces/http"
	"github.com/jhoicas/bodega-api/pkg/config"
	"github.com/jhoicas/bodega-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
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

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	docRepo := postgres.NewMovementDocumentRepository(pool)
	stockRepo := postgres.NewInventoryRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	deps := movement.Deps{
		Tx:        txRunner,
		Documents: docRepo,
		Catalog:   catalogRepo,
		Logger:    log.Component("workflow"),
	}

	// Redis es opcional: numeración por día con INCR y bloqueo por documento.
	// Sin Redis, la numeración sale de las secuencias de PostgreSQL y solo rige la versión optimista.
	if cfg.Redis.Enabled() {
		rdb, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		deps.Sequencer = redisstore.NewSequencer(rdb)
		deps.Locker = redisstore.NewDocumentLocker(rdb, cfg.Workflow.LockTTL, log.Component("redislock"))
	}

	if cfg.PubSub.Enabled() {
		ps, err := notify.NewPubSubNotifier(ctx, cfg.PubSub, log)
		if err != nil {
			log.Fatal().Err(err).Msg("cliente Pub/Sub")
		}
		defer ps.Close()
		deps.Notifier = ps
	} else {
		deps.Notifier = notify.NewLogNotifier(log)
	}

	workflowUC := movement.NewWorkflowUseCase(deps, movement.Config{
		IssuePrefix:   cfg.Workflow.IssuePrefix,
		ReceiptPrefix: cfg.Workflow.ReceiptPrefix,
	})
	ledger := inventory.NewLedger(stockRepo)

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
		Title:    "Bodega API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Workflow:  workflowUC,
		Ledger:    ledger,
		JWTSecret: cfg.JWT.Secret,
		AppName:   cfg.App.Name,
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

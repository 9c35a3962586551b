package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/adapters/cache"
	"github.com/cobranca-ops/fidc-backoffice/internal/adapters/database/pgsql"
	"github.com/cobranca-ops/fidc-backoffice/internal/adapters/gateway/pix"
	"github.com/cobranca-ops/fidc-backoffice/internal/adapters/ledger"
	"github.com/cobranca-ops/fidc-backoffice/internal/adapters/notify"
	"github.com/cobranca-ops/fidc-backoffice/internal/adapters/statement"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/handlers"
	"github.com/cobranca-ops/fidc-backoffice/internal/jobs"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
	"github.com/cobranca-ops/fidc-backoffice/internal/platform/config"
	"github.com/cobranca-ops/fidc-backoffice/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		logger.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("Database migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.ClosePgxPool(pool)

	tokenCache, err := cache.NewRedisCache(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer tokenCache.Close()

	gateway, err := pix.NewClient(cfg, tokenCache)
	if err != nil {
		logger.Error("Failed to build gateway client", "error", err)
		os.Exit(1)
	}
	statements, err := statement.NewS3Source(cfg)
	if err != nil {
		logger.Error("Failed to build statement source", "error", err)
		os.Exit(1)
	}

	repos := services.Repositories{
		Counterparties: pgsql.NewCounterpartyRepository(pool),
		Assignors:      pgsql.NewAssignorRepository(pool),
		Instruments:    pgsql.NewInstrumentRepository(pool),
		Operations:     pgsql.NewOperationRepository(pool),
		Charges:        pgsql.NewChargeRepository(pool),
		Critiques:      pgsql.NewCritiqueRepository(pool),
	}
	collab := services.Collaborators{
		Gateway:    gateway,
		Reposter:   ledger.NewRepostClient(cfg),
		Settlement: ledger.NewSettlementClient(cfg),
		Dispatcher: notify.NewLogDispatcher(logger),
		Statements: statements,
	}
	container := services.NewContainer(cfg, repos, collab)

	registry := jobs.NewRegistry(
		jobs.NewBuildOperationsJob(repos.Counterparties, repos.Instruments, container.Operations),
		jobs.NewIssueChargesJob(repos.Counterparties, repos.Assignors, container.Operations, container.Charges, gateway),
		jobs.NewSyncGatewayJob(repos.Counterparties, gateway, container.Matcher, cfg.LookbackDays),
		jobs.NewSyncStatementJob(repos.Counterparties, statements, container.Matcher),
		jobs.NewWriteOffJob(container.Operations),
		jobs.NewBankWriteOffJob(container.Operations),
		jobs.NewForwardCritiquesJob(repos.Critiques, ledger.NewCritiqueClient(cfg)),
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.StructuredLoggingMiddleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterHandlers(router, cfg, container, registry)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}

// runMigrations applies pending schema migrations before the pool opens.
func runMigrations(databaseURL string) error {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

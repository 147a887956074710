package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/audit"
	"github.com/labfoundry/workbench-engine/pkg/auth"
	"github.com/labfoundry/workbench-engine/pkg/authz"
	"github.com/labfoundry/workbench-engine/pkg/config"
	"github.com/labfoundry/workbench-engine/pkg/database"
	"github.com/labfoundry/workbench-engine/pkg/handlers"
	"github.com/labfoundry/workbench-engine/pkg/logging"
	"github.com/labfoundry/workbench-engine/pkg/metrics"
	"github.com/labfoundry/workbench-engine/pkg/repositories"
	"github.com/labfoundry/workbench-engine/pkg/services"
	"github.com/labfoundry/workbench-engine/pkg/store"
	"github.com/labfoundry/workbench-engine/pkg/validation"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.Bool("streaming_enrichment", cfg.Workbench.StreamingEnrichment),
	)

	ctx := context.Background()

	migrationDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	projectsTable := store.NewPostgresStore(pool, "projects")
	usersTable := store.NewPostgresStore(pool, "users")
	environmentsTable := store.NewPostgresStore(pool, "environments")
	accountsTable := store.NewPostgresStore(pool, "cloud_accounts")
	indexesTable := store.NewPostgresStore(pool, "indexes")

	auditRepo := repositories.NewAuditRepository(pool)
	auditor := audit.NewWriter(auditRepo, logger)
	defer auditor.Wait()

	gate := authz.NewGate(logger)
	validator := validation.New()

	userService := services.NewUserService(usersTable, logger)
	accountService := services.NewCloudAccountService(accountsTable, cfg.Workbench.ScanLimit)
	indexService := services.NewIndexService(indexesTable, cfg.Workbench.ScanLimit)
	projectService := services.NewProjectService(
		projectsTable, environmentsTable,
		userService, accountService, indexService,
		gate, validator, auditor, logger,
		services.ProjectServiceOptions{
			StreamingEnrichment: cfg.Workbench.StreamingEnrichment,
			ScanLimit:           cfg.Workbench.ScanLimit,
		},
	)
	registerService := services.NewRegisterUserService(
		usersTable, userService,
		services.AuthProviderInfo{
			ID:                         cfg.Provider.ID,
			Title:                      cfg.Provider.Title,
			FederatedIdentityProviders: cfg.Provider.FederatedIdentityProviders,
		},
		validator, auditor, logger,
	)

	authService := auth.NewService(cfg.Auth.SigningKey, cfg.Auth.EnableVerification)
	authMiddleware := auth.NewMiddleware(authService, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProjectsHandler(projectService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewRegisterHandler(registerService, logger).RegisterRoutes(mux)
	handlers.NewAuditHandler(auditRepo, cfg.Workbench.AuditListLimit, logger).RegisterRoutes(mux, authMiddleware)
	mux.Handle("GET /metrics", metrics.Handler())

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("starting workbench-engine", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, metrics.Instrument(mux)); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cms-content-migrator/internal/api"
	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/database"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/media"
	"github.com/cms-content-migrator/internal/migrator"
	"github.com/cms-content-migrator/internal/rewrite"
	"github.com/cms-content-migrator/internal/runner"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/cms-content-migrator/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting CMS content migrator...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Migrator state and target CMS tables live in the same database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Legacy content is read through views on a second connection
	sourceDB, err := database.New(&cfg.SourceDatabase, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to source database")
	}
	defer sourceDB.Close()

	// Wire the migration pipeline
	store := mapping.NewStore(db)
	svc := mapping.NewService(store, &cfg.Migration, log)
	client := target.NewClient(&cfg.Target, log)
	meta := target.NewMeta(db, log)
	resolver := media.NewResolver(svc, client, &cfg.Migration, log)
	provider := source.NewSQLProvider(sourceDB, log)

	migrators := migrator.New(svc, store, provider, client, meta, resolver, &cfg.Migration, log)
	rewriter := rewrite.NewRewriter(resolver, client, log)
	repairer := rewrite.NewRepairer(svc, provider, client, rewriter, &cfg.Migration, log)

	runRepo := runner.NewRunRepo(db)
	runs := runner.New(svc, store, migrators, repairer, runRepo, log)

	// Initialize router
	router := api.NewRouter(runs, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Ask in-flight runs to stop at their next checkpoint
	runs.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

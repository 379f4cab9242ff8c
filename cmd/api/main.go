package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flavourvault-backend/application/ports"
	"flavourvault-backend/infrastructure/cache"
	"flavourvault-backend/infrastructure/config"
	"flavourvault-backend/infrastructure/di"
	"flavourvault-backend/interfaces/http/rest"
	"flavourvault-backend/pkg/common"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Propagate hot-reloaded limits into the running services
	container.Settings.OnChange(func(s *config.Settings) {
		container.RecipeService.SetCacheTTL(s.Cache.TTLSeconds)
		container.MigrationService.SetBulkLimit(s.Limits.MaxBulkCreate)
	})

	// Kick the one-shot legacy migration when a user signs in. The
	// engine's completion flag makes repeated triggers harmless.
	container.Session.Subscribe(func(ev ports.SessionEvent) {
		if ev.Kind != ports.SessionSignedIn {
			return
		}
		if !container.Settings.Current().Features.MigrationEnabled {
			return
		}
		go func() {
			migrationCtx := common.WithUserID(context.Background(), ev.UserID)
			result := container.MigrationService.Migrate(migrationCtx)
			if !result.Success {
				container.Logger.Warn("Background migration failed",
					zap.String("error", result.Error),
				)
			}
		}()
	})

	// Create router
	router := rest.NewRouter(
		container.RecipeService,
		container.MigrationService,
		container.Verifier,
		container.Session,
		container.Settings,
		container.Metrics,
		cfg,
		container.Logger,
	)

	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}

	// Clean up resources
	container.Settings.Stop()
	if mem, ok := container.Cache.(*cache.Memory); ok {
		mem.Close()
	}
	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}

package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appservices "flavourvault-backend/application/services"
	"flavourvault-backend/infrastructure/auth"
	"flavourvault-backend/infrastructure/config"
	"flavourvault-backend/interfaces/http/rest/handlers"
	"flavourvault-backend/interfaces/http/rest/middleware"
	"flavourvault-backend/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	recipes   *appservices.RecipeService
	migration *appservices.MigrationService
	verifier  auth.TokenVerifier
	session   *auth.Session
	settings  *config.SettingsWatcher
	metrics   *observability.Collector
	cfg       *config.Config
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	recipes *appservices.RecipeService,
	migration *appservices.MigrationService,
	verifier auth.TokenVerifier,
	session *auth.Session,
	settings *config.SettingsWatcher,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		recipes:   recipes,
		migration: migration,
		verifier:  verifier,
		session:   session,
		settings:  settings,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.flavourvault.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.verifier, rt.session, rt.logger))

		r.Route("/recipes", func(r chi.Router) {
			recipeHandler := handlers.NewRecipeHandler(rt.recipes, rt.settings, rt.logger)
			r.Get("/", recipeHandler.List)
			r.Post("/", recipeHandler.Create)
			r.Get("/search", recipeHandler.Search)
			r.Get("/tags", recipeHandler.Tags)
			r.Post("/reorder", recipeHandler.Reorder)
			r.Post("/refresh", recipeHandler.Refresh)
			r.Get("/{recipeID}", recipeHandler.Get)
			r.Put("/{recipeID}", recipeHandler.Update)
			r.Delete("/{recipeID}", recipeHandler.Delete)
			r.Post("/{recipeID}/favourite", recipeHandler.ToggleFavourite)
			r.Get("/{recipeID}/scaled", recipeHandler.Scaled)
		})

		r.Route("/migration", func(r chi.Router) {
			migrationHandler := handlers.NewMigrationHandler(rt.migration, rt.settings, rt.logger)
			r.Post("/", migrationHandler.Run)
			r.Get("/", migrationHandler.Info)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

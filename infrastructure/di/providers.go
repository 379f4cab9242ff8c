package di

import (
	"fmt"

	"github.com/supabase-community/postgrest-go"
	"go.uber.org/zap"

	"flavourvault-backend/application/ports"
	appservices "flavourvault-backend/application/services"
	"flavourvault-backend/infrastructure/auth"
	"flavourvault-backend/infrastructure/cache"
	"flavourvault-backend/infrastructure/config"
	"flavourvault-backend/infrastructure/persistence/legacy"
	"flavourvault-backend/infrastructure/persistence/supabase"
	"flavourvault-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *zap.Logger
	Session          *auth.Session
	Verifier         auth.TokenVerifier
	Cache            ports.Cache
	LegacyStore      ports.LegacyStore
	RecipeRepo       ports.RecipeRepository
	RecipeService    *appservices.RecipeService
	MigrationService *appservices.MigrationService
	Metrics          *observability.Collector
	Settings         *config.SettingsWatcher
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvidePostgrestClient creates the PostgREST client for the recipes
// store, authenticated with the service role key
func ProvidePostgrestClient(cfg *config.Config) (*postgrest.Client, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseServiceRoleKey == "" {
		return nil, fmt.Errorf("supabase URL and service role key are required")
	}
	headers := map[string]string{
		"apikey":        cfg.SupabaseServiceRoleKey,
		"Authorization": "Bearer " + cfg.SupabaseServiceRoleKey,
	}
	return postgrest.NewClient(cfg.SupabaseURL+"/rest/v1", "public", headers), nil
}

// ProvideSession creates the session provider
func ProvideSession(logger *zap.Logger) *auth.Session {
	return auth.NewSession(logger)
}

// ProvideSessionProvider exposes the session as its port
func ProvideSessionProvider(session *auth.Session) ports.SessionProvider {
	return session
}

// ProvideTokenVerifier picks local JWT validation when a secret is
// configured and falls back to the hosted auth API otherwise
func ProvideTokenVerifier(cfg *config.Config) (auth.TokenVerifier, error) {
	if cfg.SupabaseJWTSecret != "" {
		return auth.NewLocalVerifier(cfg.SupabaseJWTSecret), nil
	}
	if cfg.SupabaseAnonKey != "" {
		return auth.NewRemoteVerifier(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	}
	return nil, fmt.Errorf("no token verification method configured")
}

// ProvideCache creates the in-memory cache
func ProvideCache() ports.Cache {
	return cache.NewMemory()
}

// ProvideLegacyStore opens the legacy flat-file store
func ProvideLegacyStore(cfg *config.Config, logger *zap.Logger) (ports.LegacyStore, error) {
	return legacy.NewFileStore(cfg.LegacyDataDir, logger)
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("flavourvault")
}

// ProvideSettings loads the hot-reloaded settings file
func ProvideSettings(cfg *config.Config, logger *zap.Logger) (*config.SettingsWatcher, error) {
	return config.NewSettingsWatcher(cfg.SettingsPath, logger)
}

// ProvideRecipeRepository creates the remote recipe repository
func ProvideRecipeRepository(
	db *postgrest.Client,
	session ports.SessionProvider,
	metrics *observability.Collector,
	logger *zap.Logger,
) ports.RecipeRepository {
	return supabase.NewRecipeRepository(db, session, metrics, logger)
}

// ProvideRecipeService creates the cache and mutation layer. The
// settings file wins the cache TTL when configured; otherwise the env
// value applies.
func ProvideRecipeService(
	cfg *config.Config,
	settings *config.SettingsWatcher,
	repo ports.RecipeRepository,
	c ports.Cache,
	session ports.SessionProvider,
	metrics *observability.Collector,
	logger *zap.Logger,
) *appservices.RecipeService {
	ttl := cfg.CacheTTLSeconds
	if cfg.SettingsPath != "" {
		ttl = settings.Current().Cache.TTLSeconds
	}
	return appservices.NewRecipeService(repo, c, session, metrics, logger, ttl)
}

// ProvideMigrationService creates the legacy migration engine
func ProvideMigrationService(
	settings *config.SettingsWatcher,
	legacyStore ports.LegacyStore,
	repo ports.RecipeRepository,
	session ports.SessionProvider,
	metrics *observability.Collector,
	logger *zap.Logger,
) *appservices.MigrationService {
	return appservices.NewMigrationService(
		legacyStore, repo, session, metrics, logger,
		settings.Current().Limits.MaxBulkCreate,
	)
}

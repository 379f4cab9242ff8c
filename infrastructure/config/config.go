package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration, loaded from the
// environment with sensible development defaults
type Config struct {
	// Server settings
	ServerAddress string
	Environment   string

	// Supabase settings
	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseAnonKey        string
	SupabaseJWTSecret      string

	// Legacy data settings
	LegacyDataDir string

	// Runtime settings file (hot reloaded)
	SettingsPath string

	// Cache settings
	CacheTTLSeconds int

	// Observability
	LogLevel      string
	EnableMetrics bool
	EnableCORS    bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseAnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),

		LegacyDataDir: getEnv("LEGACY_DATA_DIR", "./data/legacy"),
		SettingsPath:  getEnv("SETTINGS_PATH", ""),

		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 300),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}
	if c.IsProduction() && c.SupabaseJWTSecret == "" && c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET or SUPABASE_ANON_KEY is required in production")
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"flavourvault-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvidePostgrestClient,
	ProvideSession,
	ProvideSessionProvider,
	ProvideTokenVerifier,
	ProvideCache,
	ProvideLegacyStore,
	ProvideMetrics,
	ProvideSettings,
	ProvideRecipeRepository,
	ProvideRecipeService,
	ProvideMigrationService,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}

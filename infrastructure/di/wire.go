//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"keepwise/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideStore,
	ProvideUnitOfWork,
	ProvideRepositories,
	ProvideCollector,
	ProvideTracing,
	ProvideEventPublisher,
	ProvideMetadataExtractor,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideJWTValidator,
	ProvideErrorHandler,
	ProvideAuthConfig,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}

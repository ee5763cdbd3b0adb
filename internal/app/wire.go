//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/finquest/internal/adapter/repository"
	"github.com/eslsoft/finquest/internal/adapter/rest"
	"github.com/eslsoft/finquest/internal/infrastructure/config"
	"github.com/eslsoft/finquest/internal/infrastructure/server"
	domainrepo "github.com/eslsoft/finquest/internal/repository"
	"github.com/eslsoft/finquest/internal/usecase"
)

var configSet = wire.NewSet(
	config.Load,
)

var repositorySet = wire.NewSet(
	provideProgressRepository,
	provideCatalog,
	wire.Bind(new(domainrepo.ContentRepository), new(*repository.Catalog)),
	wire.Bind(new(domainrepo.BadgeRepository), new(*repository.Catalog)),
)

var usecaseSet = wire.NewSet(
	usecase.NewProgressStore,
	usecase.NewContentUsecase,
	usecase.NewProgressionUsecase,
	provideXPLedger,
	provideBadgeEvaluator,
	provideTimeSource,
	provideProgressionConfig,
)

var serverSet = wire.NewSet(
	server.NewLogger,
	provideFieldLogger,
	rest.NewHandler,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		repositorySet,
		usecaseSet,
		serverSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}

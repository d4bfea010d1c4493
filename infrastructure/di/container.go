package di

import (
	"keepwise/application/commands/bus"
	"keepwise/application/ports"
	querybus "keepwise/application/queries/bus"
	"keepwise/infrastructure/config"
	"keepwise/infrastructure/persistence/gormstore"
	"keepwise/interfaces/http/rest"
	"keepwise/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	LogLevel   zap.AtomicLevel
	Store      *gormstore.Store
	UnitOfWork ports.UnitOfWork
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Extractor  ports.MetadataExtractor
	Publisher  ports.EventPublisher
	Collector  *observability.Collector
	Tracer     *observability.TracerProvider
	Router     *rest.Router
}

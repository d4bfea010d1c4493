package di

import (
	"context"
	"fmt"

	"keepwise/application/commands"
	"keepwise/application/commands/bus"
	commands_handlers "keepwise/application/commands/handlers"
	"keepwise/application/ports"
	"keepwise/application/queries"
	querybus "keepwise/application/queries/bus"
	queries_handlers "keepwise/application/queries/handlers"
	"keepwise/infrastructure/config"
	"keepwise/infrastructure/messaging"
	"keepwise/infrastructure/messaging/eventbridge"
	"keepwise/infrastructure/metadata"
	"keepwise/infrastructure/persistence/gormstore"
	"keepwise/interfaces/http/rest"
	"keepwise/interfaces/http/rest/middleware"
	"keepwise/pkg/auth"
	pkgerrors "keepwise/pkg/errors"
	"keepwise/pkg/observability"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogLevel creates the shared level so a config reload can change it
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideStore opens the database and migrates it when configured to
func ProvideStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gormstore.Store, func(), error) {
	store, err := gormstore.Open(gormstore.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		SlowThreshold:   cfg.Database.SlowThreshold,
		LogQueries:      cfg.Database.LogQueries,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideUnitOfWork exposes the store's transaction boundary
func ProvideUnitOfWork(store *gormstore.Store) ports.UnitOfWork {
	return store.UnitOfWork()
}

// ProvideRepositories exposes the store's non-transactional repositories
func ProvideRepositories(store *gormstore.Store) ports.Repositories {
	return store.Repositories()
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("keepwise")
}

// ProvideTracing installs the tracer provider
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Observability.EnableTracing,
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		SampleRate:  cfg.Observability.SampleRate,
		Insecure:    !cfg.IsProduction(),
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideEventPublisher publishes to EventBridge when events are enabled and
// to the log otherwise
func ProvideEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return messaging.NewLogPublisher(logger), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Events.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return eventbridge.NewPublisher(
		awseventbridge.NewFromConfig(awsCfg),
		cfg.Events.BusName,
		cfg.Events.Source,
		logger,
	), nil
}

// ProvideMetadataExtractor creates the link preview extractor
func ProvideMetadataExtractor(cfg *config.Config, collector *observability.Collector, logger *zap.Logger) ports.MetadataExtractor {
	mcfg := metadata.DefaultConfig()
	if cfg.Metadata.Timeout > 0 {
		mcfg.Timeout = cfg.Metadata.Timeout
	}
	if cfg.Metadata.MaxBodyBytes > 0 {
		mcfg.MaxBodyBytes = cfg.Metadata.MaxBodyBytes
	}
	if cfg.Metadata.UserAgent != "" {
		mcfg.UserAgent = cfg.Metadata.UserAgent
	}
	mcfg.BlockPrivateNetworks = !cfg.Metadata.AllowPrivateNetworks
	return metadata.NewExtractor(mcfg, nil, collector, logger)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) (interface{}, error)
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	uow ports.UnitOfWork,
	publisher ports.EventPublisher,
	collector *observability.Collector,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(&zapLoggerAdapter{logger}),
		bus.MetricsMiddleware(collector),
	)

	saveLinkHandler := commands_handlers.NewSaveLinkHandler(uow, publisher, collector, logger)
	if err := commandBus.Register(commands.SaveLinkCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			saveCmd, ok := cmd.(commands.SaveLinkCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return saveLinkHandler.Handle(ctx, saveCmd)
		},
	}); err != nil {
		return nil, err
	}

	saveIdeaHandler := commands_handlers.NewSaveIdeaHandler(uow, publisher, collector, logger)
	if err := commandBus.Register(commands.SaveIdeaCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			saveCmd, ok := cmd.(commands.SaveIdeaCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return saveIdeaHandler.Handle(ctx, saveCmd)
		},
	}); err != nil {
		return nil, err
	}

	deleteHandler := commands_handlers.NewDeleteMemoryHandler(uow, publisher, collector, logger)
	if err := commandBus.Register(commands.DeleteMemoryCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			deleteCmd, ok := cmd.(commands.DeleteMemoryCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return nil, deleteHandler.Handle(ctx, deleteCmd)
		},
	}); err != nil {
		return nil, err
	}

	return commandBus, nil
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	repos ports.Repositories,
	collector *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.NewMetricsMiddleware(collector))

	recentHandler := queries_handlers.NewRecentMemoriesHandler(repos.Memories(), logger)
	listHandler := queries_handlers.NewListMemoriesHandler(repos.Memories())
	getHandler := queries_handlers.NewGetMemoryHandler(repos.Memories())
	categoriesHandler := queries_handlers.NewListCategoriesHandler(repos.Categories())
	tagsHandler := queries_handlers.NewListTagsHandler(repos.Memories())

	registrations := []struct {
		query   querybus.Query
		handler func(context.Context, querybus.Query) (interface{}, error)
	}{
		{queries.RecentMemoriesQuery{}, func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.RecentMemoriesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return recentHandler.Handle(ctx, q)
		}},
		{queries.ListMemoriesQuery{}, func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.ListMemoriesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listHandler.Handle(ctx, q)
		}},
		{queries.GetMemoryQuery{}, func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetMemoryQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getHandler.Handle(ctx, q)
		}},
		{queries.ListCategoriesQuery{}, func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.ListCategoriesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return categoriesHandler.Handle(ctx, q)
		}},
		{queries.ListTagsQuery{}, func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.ListTagsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return tagsHandler.Handle(ctx, q)
		}},
	}

	for _, reg := range registrations {
		if err := queryBus.Register(reg.query, &QueryHandlerAdapter{handler: reg.handler}); err != nil {
			return nil, err
		}
	}

	return queryBus, nil
}

// ProvideJWTValidator creates the bearer token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.SigningSecret(),
		Issuer:        cfg.Auth.JWTIssuer,
		Audience:      cfg.Auth.JWTAudience,
	})
}

// ProvideErrorHandler creates the HTTP error renderer
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.Debug)
}

// ProvideAuthConfig wires token validation and rate limits
func ProvideAuthConfig(cfg *config.Config, validator *auth.JWTValidator) middleware.AuthConfig {
	return middleware.AuthConfig{
		Validator:    validator,
		IPLimiter:    auth.NewIPRateLimiter(cfg.Auth.IPRateLimit),
		UserLimiter:  auth.NewUserRateLimiter(cfg.Auth.UserRateLimit),
		IPLimit:      cfg.Auth.IPRateLimit,
		UserLimit:    cfg.Auth.UserRateLimit,
		TrustGateway: cfg.IsLambda,
	}
}

// ProvideRouter builds the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	extractor ports.MetadataExtractor,
	authConfig middleware.AuthConfig,
	errs *pkgerrors.ErrorHandler,
	store *gormstore.Store,
	collector *observability.Collector,
	logger *zap.Logger,
) *rest.Router {
	opts := rest.RouterOptions{
		Database:       store,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}
	if cfg.Observability.EnableMetrics {
		opts.Metrics = collector
	}
	return rest.NewRouter(commandBus, queryBus, extractor, authConfig, errs, logger, opts)
}

// zapLoggerAdapter adapts zap.Logger to the bus.Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) Error(msg string, fields ...interface{}) {
	a.logger.Error(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) fieldsToZap(fields ...interface{}) []zap.Field {
	var zapFields []zap.Field
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			key, _ := fields[i].(string)
			if err, ok := fields[i+1].(error); ok {
				zapFields = append(zapFields, zap.NamedError(key, err))
				continue
			}
			zapFields = append(zapFields, zap.Any(key, fields[i+1]))
		}
	}
	return zapFields
}

package rest

import (
	"context"
	"net/http"
	"time"

	"keepwise/application/commands/bus"
	"keepwise/application/ports"
	querybus "keepwise/application/queries/bus"
	"keepwise/interfaces/http/rest/handlers"
	"keepwise/interfaces/http/rest/middleware"
	pkgerrors "keepwise/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsProvider exposes request metrics and their scrape endpoint
type MetricsProvider interface {
	middleware.HTTPRecorder
	Handler() http.Handler
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus     *bus.CommandBus
	queryBus       *querybus.QueryBus
	extractor      ports.MetadataExtractor
	auth           middleware.AuthConfig
	metrics        MetricsProvider
	database       Pinger
	errors         *pkgerrors.ErrorHandler
	logger         *zap.Logger
	allowedOrigins []string
	maxBodyBytes   int64
}

// RouterOptions holds the optional parts of the router
type RouterOptions struct {
	Metrics        MetricsProvider
	Database       Pinger
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	extractor ports.MetadataExtractor,
	authConfig middleware.AuthConfig,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
	opts RouterOptions,
) *Router {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Router{
		commandBus:     commandBus,
		queryBus:       queryBus,
		extractor:      extractor,
		auth:           authConfig,
		metrics:        opts.Metrics,
		database:       opts.Database,
		errors:         errs,
		logger:         logger,
		allowedOrigins: opts.AllowedOrigins,
		maxBodyBytes:   opts.MaxBodyBytes,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	memoryHandler := handlers.NewMemoryHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger, rt.maxBodyBytes)
	catalogHandler := handlers.NewCatalogHandler(rt.queryBus, rt.errors, rt.logger)
	metadataHandler := handlers.NewMetadataHandler(rt.extractor, rt.errors, rt.logger)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.auth, rt.errors, rt.logger))

		r.Route("/links", func(r chi.Router) {
			r.Post("/", memoryHandler.CreateLink)
			r.Put("/{id}", memoryHandler.UpdateLink)
			r.Delete("/{id}", memoryHandler.DeleteLink)
		})

		r.Route("/ideas", func(r chi.Router) {
			r.Post("/", memoryHandler.CreateIdea)
			r.Put("/{id}", memoryHandler.UpdateIdea)
			r.Delete("/{id}", memoryHandler.DeleteIdea)
		})

		r.Route("/memories", func(r chi.Router) {
			r.Get("/", memoryHandler.ListMemories)
			r.Get("/recent", memoryHandler.RecentMemories)
			r.Get("/{id}", memoryHandler.GetMemory)
		})

		r.Get("/categories", catalogHandler.ListCategories)
		r.Get("/tags", catalogHandler.ListTags)
		r.Post("/extract-metadata", metadataHandler.ExtractMetadata)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.database != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.database.Ping(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			rt.errors.Handle(w, req, pkgerrors.NewUnavailableError("database"))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

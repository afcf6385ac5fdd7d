package rest

import (
	"net/http"

	"journals-backend/application/ports"
	"journals-backend/application/services"
	"journals-backend/interfaces/http/rest/handlers"
	"journals-backend/interfaces/http/rest/middleware"
	"journals-backend/interfaces/web"
	apperrors "journals-backend/pkg/errors"
	"journals-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Connection is the view of the connection manager the router needs
type Connection interface {
	ports.ConnectionGate
	handlers.ConnectionStatus
}

// RouterOptions holds the optional collaborators of the router
type RouterOptions struct {
	// Collector enables request metrics and /metrics when set
	Collector *observability.Collector
	// Tracer defaults to a no-op tracer
	Tracer trace.Tracer
	// AllowedOrigins defaults to every origin
	AllowedOrigins []string
}

// Router creates and configures the HTTP router
type Router struct {
	service    *services.JournalService
	connection Connection
	opts       RouterOptions
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	service *services.JournalService,
	connection Connection,
	opts RouterOptions,
	logger *zap.Logger,
) *Router {
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("journals-backend/http")
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Router{
		service:    service,
		connection: connection,
		opts:       opts,
		logger:     logger,
	}
}

// ungatedPaths are served whatever the record store's state
func ungatedPaths() []string {
	return append([]string{"/health", "/metrics"}, web.Paths...)
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(rt.logger)

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Tracing(rt.opts.Tracer))
	if rt.opts.Collector != nil {
		router.Use(middleware.Metrics(rt.opts.Collector))
	}
	router.Use(chimiddleware.Compress(5))

	// CORS runs before the gate so preflights are answered without a connection
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-Trace-ID"},
		MaxAge:         300,
	}))

	gateOpts := middleware.GateOptions{SkipPaths: ungatedPaths()}
	if rt.opts.Collector != nil {
		gateOpts.OnReject = rt.opts.Collector.GateRejected
	}
	router.Use(middleware.ConnectionGate(rt.connection, gateOpts, rt.logger))

	// Health checks
	health := handlers.NewHealthHandler(rt.connection)
	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)

	if rt.opts.Collector != nil {
		router.Handle("/metrics", rt.opts.Collector.Handler())
	}

	router.Route("/api/journals", func(r chi.Router) {
		journalHandler := handlers.NewJournalHandler(rt.service, errorHandler, rt.logger)
		r.Get("/", journalHandler.ListJournals)
		r.Post("/", journalHandler.CreateJournal)
		r.Put("/{id}", journalHandler.UpdateJournal)
		r.Delete("/{id}", journalHandler.DeleteJournal)
	})

	ui := web.Handler()
	for _, p := range web.Paths {
		router.Get(p, ui.ServeHTTP)
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return router
}

package di

import (
	"context"
	"fmt"

	"journals-backend/application/ports"
	"journals-backend/application/services"
	"journals-backend/infrastructure/config"
	"journals-backend/infrastructure/persistence/connection"
	"journals-backend/infrastructure/persistence/decorators"
	"journals-backend/infrastructure/persistence/dynamodb"
	"journals-backend/infrastructure/persistence/memory"
	"journals-backend/infrastructure/persistence/mongodb"
	"journals-backend/interfaces/http/rest"
	"journals-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StoreClient is the driver-specific store. It serves records and is the
// connection manager's dialer.
type StoreClient interface {
	ports.JournalStore
	connection.Dialer
}

// reportingStore is implemented by clients that detect transport failures
// on their own.
type reportingStore interface {
	SetReporter(r connection.Reporter)
}

// ProvideLogLevel parses the configured level into an adjustable zap level
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideConfigWatcher reloads the YAML overlay and applies the new log level
func ProvideConfigWatcher(cfg *config.Config, level zap.AtomicLevel, logger *zap.Logger) (*config.ConfigWatcher, error) {
	watcher, err := config.NewConfigWatcher(cfg, logger)
	if err != nil {
		return nil, err
	}

	watcher.OnChange(func(next *config.Config) {
		parsed, err := zapcore.ParseLevel(next.LogLevel)
		if err != nil {
			return
		}
		if parsed != level.Level() {
			logger.Info("Log level changed",
				zap.Stringer("from", level.Level()),
				zap.Stringer("to", parsed),
			)
			level.SetLevel(parsed)
		}
	})

	return watcher, nil
}

// ProvideCollector creates the Prometheus collector, or nil when metrics are off
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("journals")
}

// ProvideTracerProvider initializes OpenTelemetry tracing
func ProvideTracerProvider(ctx context.Context, cfg *config.Config) (*observability.TracerProvider, error) {
	return observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.EnableTracing,
		ServiceName: "journals-backend",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
}

// ProvideStoreClient creates the store for the configured driver. No network
// I/O happens here; the connection manager dials on first demand.
func ProvideStoreClient(cfg *config.Config, logger *zap.Logger) (StoreClient, error) {
	storeLogger := logger.With(zap.String("store", cfg.Store.Driver))

	switch cfg.Store.Driver {
	case config.DriverMongoDB:
		return mongodb.NewJournalStore(mongodb.Config{
			URI:                    cfg.Store.MongoURI,
			Database:               cfg.Store.MongoDatabase,
			Collection:             cfg.Store.MongoCollection,
			MaxPoolSize:            cfg.Connection.MaxPoolSize,
			HeartbeatInterval:      cfg.Connection.HeartbeatInterval,
			ServerSelectionTimeout: cfg.Connection.Timeout,
		}, storeLogger), nil
	case config.DriverDynamoDB:
		return dynamodb.NewJournalStore(cfg.Store.TableName, dynamoDBFactory(cfg), storeLogger), nil
	case config.DriverMemory:
		return memory.NewJournalStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// dynamoDBFactory loads AWS credentials on first dial, so a cold start does
// not pay for it unless a request needs the table.
func dynamoDBFactory(cfg *config.Config) dynamodb.ClientFactory {
	return func(ctx context.Context) (dynamodb.DBClient, error) {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Store.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
			if cfg.Store.DynamoDBEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Store.DynamoDBEndpoint)
			}
		}), nil
	}
}

// ProvideConnectionManager creates the connection manager and registers it as
// the client's failure reporter.
func ProvideConnectionManager(
	client StoreClient,
	cfg *config.Config,
	collector *observability.Collector,
	tracing *observability.TracerProvider,
	logger *zap.Logger,
) *connection.Manager {
	opts := []connection.Option{
		connection.WithTimeout(cfg.Connection.Timeout),
		connection.WithLogger(logger.Named("connection")),
		connection.WithTracer(tracing.Tracer()),
	}
	if collector != nil {
		opts = append(opts, connection.WithObserver(collector))
	}

	manager := connection.NewManager(client, opts...)
	if r, ok := client.(reportingStore); ok {
		r.SetReporter(manager)
	}
	return manager
}

// ProvideJournalStore stacks the decorators around the client. Metrics sit
// outermost so breaker rejections are counted too.
func ProvideJournalStore(
	client StoreClient,
	cfg *config.Config,
	collector *observability.Collector,
	tracing *observability.TracerProvider,
	logger *zap.Logger,
) ports.JournalStore {
	var store ports.JournalStore = client

	store = decorators.NewTracingStore(store, tracing.Tracer(), cfg.Store.Driver)

	if cfg.EnableCircuitBreaker {
		store = decorators.NewCircuitBreakerStore(store,
			decorators.DefaultCircuitBreakerConfig("journal-store"),
			logger,
		)
	}

	if collector != nil {
		store = decorators.NewMetricsStore(store, collector)
	}

	return store
}

// ProvideJournalService creates the journal service
func ProvideJournalService(store ports.JournalStore, logger *zap.Logger) *services.JournalService {
	return services.NewJournalService(store, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	service *services.JournalService,
	manager *connection.Manager,
	cfg *config.Config,
	collector *observability.Collector,
	tracing *observability.TracerProvider,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(service, manager, rest.RouterOptions{
		Collector:      collector,
		Tracer:         tracing.Tracer(),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, logger)
}

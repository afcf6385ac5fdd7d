package di

import (
	"context"
	"errors"

	"journals-backend/application/ports"
	"journals-backend/application/services"
	"journals-backend/infrastructure/config"
	"journals-backend/infrastructure/persistence/connection"
	"journals-backend/interfaces/http/rest"
	"journals-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	LogLevel  zap.AtomicLevel
	Watcher   *config.ConfigWatcher
	Collector *observability.Collector
	Tracing   *observability.TracerProvider
	Manager   *connection.Manager
	Store     ports.JournalStore
	Service   *services.JournalService
	Router    *rest.Router
}

// Shutdown stops the config watcher, closes the store connection and flushes
// traces.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	if c.Manager != nil {
		if err := c.Manager.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Tracing.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

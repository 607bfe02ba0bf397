// Package app wires configuration, logging, the store and the request
// pipeline into a ready-to-serve application. Both entry points share it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deppfellow/product-inventory/internal/config"
	"github.com/deppfellow/product-inventory/internal/database"
	"github.com/deppfellow/product-inventory/internal/handler"
	"github.com/deppfellow/product-inventory/internal/logger"
	"github.com/deppfellow/product-inventory/internal/repository"
	"github.com/deppfellow/product-inventory/internal/router"
	"github.com/deppfellow/product-inventory/internal/server"
	"github.com/deppfellow/product-inventory/internal/service"
)

// App is a fully wired application.
type App struct {
	Server     *server.Server
	Dispatcher *router.Dispatcher
	Logger     zerolog.Logger
}

// New loads the configuration and builds the application. The postgres
// driver runs its migrations before the first request.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig builds the application from an already loaded config.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	loggerService := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if cfg.Store.Driver == config.DriverPostgres {
		if err := database.Migrate(ctx, &log, cfg); err != nil {
			loggerService.Shutdown()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	srv, err := server.New(ctx, cfg, &log, loggerService)
	if err != nil {
		loggerService.Shutdown()
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	repos, err := repository.NewRepositories(srv)
	if err != nil {
		_ = srv.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	services, err := service.NewService(srv, repos)
	if err != nil {
		_ = srv.Close()
		return nil, fmt.Errorf("failed to create services: %w", err)
	}

	handlers := handler.NewHandlers(srv, services)

	return &App{
		Server:     srv,
		Dispatcher: router.NewDispatcher(srv, handlers),
		Logger:     log,
	}, nil
}

// Package server defines the Server container that composes the app's
// main dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the client of the selected store driver (DynamoDB, PostgreSQL or Redis)
//   - the http.Server when running behind the HTTP harness
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/deppfellow/product-inventory/internal/config"
	"github.com/deppfellow/product-inventory/internal/database"
	loggerPkg "github.com/deppfellow/product-inventory/internal/logger"
)

// RedisPingTimeout bounds the startup ping of the Redis driver.
const RedisPingTimeout = 5 * time.Second

// Server is the application container. Only the client of the configured
// store driver is set; the others stay nil.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	DB     *database.Database
	Redis  *redis.Client
	Dynamo *dynamodb.Client

	httpServer *http.Server
}

// New opens the connection required by cfg.Store.Driver.
//
// The memory driver needs nothing. Every other driver must be reachable:
// unlike a cache, the store is the only copy of the data, so a failed
// connection stops startup.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	s := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
	}

	switch cfg.Store.Driver {
	case config.DriverDynamoDB:
		client, err := database.NewDynamoDB(ctx, cfg.AWS, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize dynamodb: %w", err)
		}
		s.Dynamo = client

	case config.DriverPostgres:
		db, err := database.New(ctx, cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.DB = db

	case config.DriverRedis:
		client, err := newRedis(ctx, cfg.Redis, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		s.Redis = client
	}

	logger.Info().
		Str("driver", cfg.Store.Driver).
		Str("table", cfg.Store.Table).
		Msg("product store ready")

	return s, nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig, loggerService *loggerPkg.LoggerService) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Address,
	})

	// Command timings show up in New Relic traces.
	if loggerService.GetApplication() != nil {
		client.AddHook(nrredis.NewHook(client.Options()))
	}

	pingCtx, cancel := context.WithTimeout(ctx, RedisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// SetupHTTPServer configures the internal net/http server around handler.
// Config timeouts are whole seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server and blocks until it stops.
// http.ErrServerClosed after Shutdown is not reported as an error.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("driver", s.Config.Store.Driver).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server (when running) and closes the store
// clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	return s.Close()
}

// Close releases the store clients. The DynamoDB client holds no
// connections of its own.
func (s *Server) Close() error {
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis connection: %w", err)
		}
	}

	s.LoggerService.Shutdown()

	return nil
}

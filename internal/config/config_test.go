package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverDynamoDB, cfg.Store.Driver)
	assert.Equal(t, "product-inventory", cfg.Store.Table)
	assert.Equal(t, 100, cfg.Store.PageSize)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "product-inventory", cfg.Observability.ServiceName)
	assert.Equal(t, cfg.Primary.Env, cfg.Observability.Environment)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("INVENTORY_PRIMARY__ENV", "production")
	t.Setenv("INVENTORY_STORE__DRIVER", "redis")
	t.Setenv("INVENTORY_STORE__TABLE", "inventory-test")
	t.Setenv("INVENTORY_STORE__PAGE_SIZE", "25")
	t.Setenv("INVENTORY_REDIS__ADDRESS", "localhost:6379")
	t.Setenv("INVENTORY_SERVER__PORT", "9090")
	t.Setenv("INVENTORY_OBSERVABILITY__LOGGING__LEVEL", "warn")
	t.Setenv("INVENTORY_OBSERVABILITY__LOGGING__SLOW_OPERATION_THRESHOLD", "2s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "inventory-test", cfg.Store.Table)
	assert.Equal(t, 25, cfg.Store.PageSize)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Observability.Logging.SlowOperationThreshold)
	assert.Equal(t, "production", cfg.Observability.Environment)
	assert.True(t, cfg.Observability.IsProduction())

	// Untouched keys keep their defaults.
	assert.Equal(t, 10, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "mongo" },
			wantErr: "config validation failed",
		},
		{
			name:    "page size too large",
			mutate:  func(c *Config) { c.Store.PageSize = 5000 },
			wantErr: "config validation failed",
		},
		{
			name:    "postgres without database settings",
			mutate:  func(c *Config) { c.Store.Driver = DriverPostgres },
			wantErr: "postgres store config validation failed",
		},
		{
			name: "postgres with database settings",
			mutate: func(c *Config) {
				c.Store.Driver = DriverPostgres
				c.Database.Host = "localhost"
				c.Database.User = "inventory"
				c.Database.Password = "secret"
				c.Database.Name = "inventory"
			},
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.Store.Driver = DriverRedis },
			wantErr: "redis store config validation failed",
		},
		{
			name:    "dynamodb without region",
			mutate:  func(c *Config) { c.AWS.Region = "" },
			wantErr: "dynamodb store config validation failed",
		},
		{
			name:    "dynamodb endpoint must be a url",
			mutate:  func(c *Config) { c.AWS.Endpoint = "not a url" },
			wantErr: "dynamodb store config validation failed",
		},
		{
			name:   "memory needs nothing else",
			mutate: func(c *Config) { c.Store.Driver = DriverMemory; c.AWS.Region = "" },
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Observability.Logging.Level = "verbose" },
			wantErr: "invalid logging level",
		},
		{
			name:    "negative slow threshold",
			mutate:  func(c *Config) { c.Observability.Logging.SlowOperationThreshold = -time.Second },
			wantErr: "slow_operation_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "store.driver", envKey("INVENTORY_STORE__DRIVER"))
	assert.Equal(t, "observability.new_relic.license_key", envKey("INVENTORY_OBSERVABILITY__NEW_RELIC__LICENSE_KEY"))
	assert.Equal(t, "server.port", envKey("INVENTORY_server.port"))
}

func TestObservabilityConfig_GetLogLevel(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	cfg.Logging.Level = ""

	cfg.Environment = "production"
	assert.Equal(t, "info", cfg.GetLogLevel())

	cfg.Environment = "development"
	assert.Equal(t, "debug", cfg.GetLogLevel())

	cfg.Logging.Level = "error"
	assert.Equal(t, "error", cfg.GetLogLevel())
}

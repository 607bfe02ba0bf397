// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types, and validates that required values
// are present so they can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults so a local run needs no configuration at all.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the prefix INVENTORY_.

	- The prefix is removed and the rest is lowercased.
	- A double underscore (or a literal ".") marks nesting:
	  INVENTORY_STORE__DRIVER         -> store.driver
	  INVENTORY_SERVER__READ_TIMEOUT  -> server.read_timeout
	  INVENTORY_OBSERVABILITY__LOGGING__LEVEL -> observability.logging.level
*/

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "INVENTORY_"

// Store drivers understood by the repository layer.
const (
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf maps values from and the
// `validate:"..."` tags are enforced by go-playground/validator.
// Driver-specific blocks (AWS, Database, Redis) are only validated when
// the matching store driver is selected, see Validate.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Store         StoreConfig          `koanf:"store" validate:"required"`
	AWS           AWSConfig            `koanf:"aws" validate:"-"`
	Database      DatabaseConfig       `koanf:"database" validate:"-"`
	Redis         RedisConfig          `koanf:"redis" validate:"-"`
	Observability *ObservabilityConfig `koanf:"observability" validate:"required"`
}

// Primary holds top-level information about the runtime environment.
// Used to tag logs/traces and switch behavior based on env.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port            string `koanf:"port" validate:"required"`
	ReadTimeout     int    `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout    int    `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout     int    `koanf:"idle_timeout" validate:"required,min=1"`
	ShutdownTimeout int    `koanf:"shutdown_timeout" validate:"required,min=1"`
}

// StoreConfig selects the item store backing the product collection.
//
// Table is the DynamoDB table name, the Postgres table name and the Redis
// key prefix, depending on the driver. PageSize bounds a single scan page.
type StoreConfig struct {
	Driver   string `koanf:"driver" validate:"required,oneof=dynamodb postgres redis memory"`
	Table    string `koanf:"table" validate:"required"`
	PageSize int    `koanf:"page_size" validate:"required,min=1,max=1000"`
}

// AWSConfig holds the DynamoDB client settings.
// Endpoint is optional and only set for DynamoDB Local or LocalStack.
type AWSConfig struct {
	Region   string `koanf:"region" validate:"required"`
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details.
// Address is typically "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// Default returns the configuration used when nothing is set in the
// environment: a development server on :8080 backed by DynamoDB in
// us-east-1 with the "product-inventory" table.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Store: StoreConfig{
			Driver:   DriverDynamoDB,
			Table:    "product-inventory",
			PageSize: 100,
		},
		AWS: AWSConfig{Region: "us-east-1"},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 300,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig loads configuration from environment variables on top of
// Default, validates it and returns the result.
//
// Behavior summary:
//   - Loads env vars with prefix INVENTORY_
//   - Converts env keys into koanf keys using "." nesting
//   - Unmarshals into a Config pre-populated with defaults
//   - Validates struct tags and driver-specific blocks
//   - Forces the observability service name and environment
func LoadConfig() (*Config, error) {
	// "." is the key-path delimiter koanf uses to represent nesting.
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	// Unmarshal leaves fields that have no matching key untouched, so
	// starting from Default gives every unset value its default.
	mainConfig := Default()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	mainConfig.Observability.ServiceName = "product-inventory"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

// envKey maps INVENTORY_STORE__PAGE_SIZE to store.page_size.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate runs the struct-tag validation and then the rules that depend
// on the selected store driver.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Only the block of the selected driver has to be complete.
	var driverErr error
	switch c.Store.Driver {
	case DriverDynamoDB:
		driverErr = validate.Struct(c.AWS)
	case DriverPostgres:
		driverErr = validate.Struct(c.Database)
	case DriverRedis:
		driverErr = validate.Struct(c.Redis)
	}
	if driverErr != nil {
		return fmt.Errorf("%s store config validation failed: %w", c.Store.Driver, driverErr)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

// IsLocal reports whether the service runs on a developer machine.
// Query tracing is only attached to the Postgres pool in this env.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}

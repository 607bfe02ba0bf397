package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/deppfellow/product-inventory/internal/config"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// Embedded SQL migrations, applied in filename order.
//
// Each file is named NNN_description.sql and holds the "up" statements,
// then a `---- create above / drop below ----` marker and the "down"
// statements tern uses for rollbacks. Embedding them means the binary
// never depends on the working directory it is started from.
//
//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the products schema to the latest version with tern.
// It uses a dedicated connection rather than the pool.
//
// Flow:
//  1. connect with the same DSN the pool uses
//  2. load the embedded migrations
//  3. read the applied version from schema_version
//  4. apply everything newer and log the outcome
//
// Only the postgres driver calls it; the other stores have no schema.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	dsn := DSN(cfg.Database)

	// Open a direct connection for migrations.
	// Using a single connection avoids pool complexity for a one-time action.
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting for migrations: %w", err)
	}
	defer conn.Close(ctx)

	// Create a migrator that stores migration version in the schema_version table.
	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	// Get a subtree view starting at "migrations" directory within the embedded FS.
	// tern expects an fs.FS pointing at the directory containing migration files.
	subtree, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	// Load migrations from the embedded filesystem.
	// tern parses filenames and orders them.
	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	// Read current version from schema_version.
	// `from` is the version number already applied.
	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	// Apply migrations up to latest.
	// tern runs each migration in its own transaction and bumps the
	// version row after it, so a failure leaves the schema at the last
	// migration that succeeded.
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("applying database migrations: %w", err)
	}

	// Log outcome:
	// If current version equals number of migrations loaded, nothing changed.
	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}

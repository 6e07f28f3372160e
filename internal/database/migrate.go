package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// SchemaVersion is the lowest migration the service runs against:
// portfolio_chunks plus the chat telemetry tables.
const SchemaVersion uint = 2

// RunMigrations applies all pending up-migrations and returns the resulting
// schema version. A dirty schema or one older than SchemaVersion is an error.
func RunMigrations(dsn, migrationsPath string) (uint, error) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		dsn,
	)
	if err != nil {
		return 0, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("running migrations: %w", err)
	}

	ver, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if err := checkVersion(ver, dirty); err != nil {
		return ver, err
	}

	slog.Info("database migrations applied", "version", ver)
	return ver, nil
}

func checkVersion(ver uint, dirty bool) error {
	if dirty {
		return fmt.Errorf("schema version %d is dirty, fix it with migrate force", ver)
	}
	if ver < SchemaVersion {
		return fmt.Errorf("schema version %d is older than required %d", ver, SchemaVersion)
	}
	return nil
}

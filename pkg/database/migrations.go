package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// RunMigrations applies any pending SQL migrations from migrationsPath.
// Already-applied migrations are skipped, so it can run on every boot.
func RunMigrations(db *sql.DB, migrationsPath string, logger *zap.Logger) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("failed to close migration instance",
				zap.NamedError("source", srcErr),
				zap.NamedError("database", dbErr),
			)
		}
	}()

	switch err := m.Up(); {
	case err == nil:
		version, _, _ := m.Version()
		logger.Info("database migrated", zap.Uint("version", version))
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("database schema up to date")
	default:
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies the embedded SQL migrations against the target database.
func Migrate(fsys embed.FS, dir, databaseURL string) error {
	if databaseURL == "" {
		return errors.New("platform/db: database URL required")
	}
	source, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("platform/db: migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("platform/db: migrate init: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("platform/db: migrate up: %w", err)
	}
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("platform/db: migration source close: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("platform/db: migration db close: %w", dbErr)
	}
	return nil
}

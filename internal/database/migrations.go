package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// ErrDirtySchema is returned when a previous migration failed half way and the
// schema must be repaired by hand before the gateway can use it.
var ErrDirtySchema = errors.New("archive schema is dirty")

// MigrationRunner applies the archive and analytics schema.
type MigrationRunner struct {
	m   *migrate.Migrate
	log *logrus.Logger
}

// NewMigrationRunner opens migrationsPath (a directory or file:// URL) against databaseURL.
func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	migrationsPath = sourceURL(migrationsPath)

	m, err := migrate.New(migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening migrations %s: %w", migrationsPath, err)
	}
	return &MigrationRunner{m: m, log: logger}, nil
}

// sourceURL accepts both a bare directory and a file:// URL.
func sourceURL(migrationsPath string) string {
	if strings.Contains(migrationsPath, "://") {
		return migrationsPath
	}
	return "file://" + migrationsPath
}

// Up applies every pending migration. A dirty schema is refused.
func (r *MigrationRunner) Up(ctx context.Context) error {
	if _, dirty, err := r.Version(); err == nil && dirty {
		return ErrDirtySchema
	}
	return r.apply(ctx, "up", r.m.Up)
}

// Down reverts the most recent migration.
func (r *MigrationRunner) Down(ctx context.Context) error {
	return r.apply(ctx, "down", func() error { return r.m.Steps(-1) })
}

func (r *MigrationRunner) apply(ctx context.Context, direction string, step func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := step()
	if errors.Is(err, migrate.ErrNoChange) {
		r.log.WithField("direction", direction).Info("Schema already current")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrating %s: %w", direction, err)
	}

	fields := logrus.Fields{"direction": direction}
	if version, dirty, verr := r.Version(); verr == nil {
		fields["version"] = version
		fields["dirty"] = dirty
	}
	r.log.WithFields(fields).Info("Schema migrated")
	return nil
}

// Version reports the applied schema version. A fresh database reports 0.
func (r *MigrationRunner) Version() (uint, bool, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the migration source and database handles.
func (r *MigrationRunner) Close() error {
	sourceErr, dbErr := r.m.Close()
	return errors.Join(sourceErr, dbErr)
}

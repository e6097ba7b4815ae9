package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Up applies every pending migration found in fsys to the database at pgURL.
func Up(log *slog.Logger, fsys fs.FS, pgURL string) error {
	m, err := open(fsys, pgURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("schema up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	log.Info("schema migrated", "version", version, "dirty", dirty)
	return nil
}

// Down reverts every applied migration.
func Down(log *slog.Logger, fsys fs.FS, pgURL string) error {
	m, err := open(fsys, pgURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	log.Info("schema reverted")
	return nil
}

func open(fsys fs.FS, pgURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, DriverURL(pgURL))
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	return m, nil
}

// DriverURL rewrites a postgres:// URL into the pgx5:// scheme the driver registers.
func DriverURL(pgURL string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(pgURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(pgURL, prefix)
		}
	}
	return pgURL
}

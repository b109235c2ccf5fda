package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"taskBoard/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate применяет встроенные миграции к базе по адресу databaseURL
func Migrate(databaseURL string) (err error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		err = multierr.Combine(err, srcErr, dbErr)
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Ошибка применения миграций", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		logger.Info("Repository: Миграции применены",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty))
	}
	return nil
}

// migrateURL меняет схему postgres:// на pgx5://, которую регистрирует драйвер migrate
func migrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}

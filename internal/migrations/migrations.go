package migrations

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/config"
)

// Run applies any pending SQL migrations. It opens its own short-lived
// database/sql connection because goose does not speak pgxpool.
func Run(cfg *config.Config, logger *zap.Logger) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.GetURL())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	path := resolvePath(cfg.Database.MigrationPath, logger)
	if err := goose.Up(db, path); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	logger.Info("migrations applied", zap.String("path", path))
	return nil
}

// resolvePath tries the configured migration directory first, then the
// usual locations relative to the working directory.
func resolvePath(configured string, logger *zap.Logger) string {
	if _, err := os.Stat(configured); err == nil {
		return configured
	}

	cwd, err := os.Getwd()
	if err != nil {
		return configured
	}

	candidates := []string{
		filepath.Join(cwd, "scripts", "migrations"),
		filepath.Join(cwd, "..", "scripts", "migrations"),
		"/app/scripts/migrations",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	logger.Warn("migration directory not found, using configured path",
		zap.String("path", configured))
	return configured
}

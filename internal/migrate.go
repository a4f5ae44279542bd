package internal

import (
	"database/sql"
	"embed"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations applies every pending migration embedded in the binary.
func RunMigrations(db *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	before, err := goose.GetDBVersion(db)
	if err != nil {
		before = 0
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return err
	}

	after, err := goose.GetDBVersion(db)
	if err != nil {
		return err
	}
	if after != before {
		logger.Info("Migrations applied", "from_version", before, "to_version", after)
	}
	return nil
}

package mirror

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the mirror schema. goose works over database/sql, so
// callers hand in a plain *sql.DB (pgx/v5/stdlib works) even when the
// Store itself runs on a pgx pool.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply mirror migrations: %w", err)
	}
	return nil
}

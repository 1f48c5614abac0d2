package sqlite

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate brings the schema up to date using the embedded migration files.
func Migrate(ctx context.Context, pool *Pool) error {
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("sqlite: set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, pool.DB(), "migrations"); err != nil {
		return fmt.Errorf("sqlite: run migrations: %w", err)
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"embed"

	"cog_mailing_sync/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded migrations for tables this service owns.
// The Cog mailing hierarchy itself is managed elsewhere and never migrated here.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig) error {
	conn, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return err
	}
	defer conn.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetTableName("cog_mailing_sync_goose_version")

	return goose.UpContext(ctx, conn, "migrations")
}

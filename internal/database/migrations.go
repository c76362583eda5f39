package database

import (
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-server/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ApplyMigrations brings the schema up to date using the embedded
// migration files.
func ApplyMigrations(pool *pgxpool.Pool) error {
	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: "migrations",
		MigrationsFS:   migrationsFS,
	}, pool)
	return migrator.Up()
}

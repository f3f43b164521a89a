package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// ErrNoDatabase is returned by Migrate when no database is configured.
var ErrNoDatabase = errors.New("no database configured")

// Commands accepted by Migrate.
var migrateCommands = map[string]bool{
	"up":        true,
	"up-by-one": true,
	"up-to":     true,
	"down":      true,
	"down-to":   true,
	"redo":      true,
	"reset":     true,
	"status":    true,
	"version":   true,
}

func prepareGoose() error {
	goose.SetBaseFS(migrationFiles)
	return goose.SetDialect("postgres")
}

// RunMigrations brings the profiles, decks and views tables up to date.
// A nil database means the app runs on memory repositories and is a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	return Migrate(ctx, database, "up")
}

// Migrate runs one goose command against the embedded schema. up-to and
// down-to take the target version as their only argument.
func Migrate(ctx context.Context, database *sql.DB, command string, args ...string) error {
	if database == nil {
		return ErrNoDatabase
	}
	if !migrateCommands[command] {
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.RunContext(ctx, command, database, migrationsDir, args...)
}

// SchemaVersion returns the latest applied migration version.
func SchemaVersion(ctx context.Context, database *sql.DB) (int64, error) {
	if database == nil {
		return 0, ErrNoDatabase
	}
	if err := prepareGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, database)
}

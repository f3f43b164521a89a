package main

// Run database migrations:
//   go run ./cmd/migrate            # up
//   go run ./cmd/migrate status
//   go run ./cmd/migrate down-to 2

import (
	"context"
	"log"
	"os"

	"github.com/somacore/roledeck/internal/shared/config"
	"github.com/somacore/roledeck/internal/shared/storage/db"
)

func main() {
	command, args := "up", []string(nil)
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, command, args...); err != nil {
		log.Printf("migrate %s failed: %v", command, err)
		os.Exit(1)
	}
	if version, err := db.SchemaVersion(ctx, sqlDB); err == nil {
		log.Printf("roledeck schema at version %d", version)
	}
}

package main

import (
	"os"
	"strings"

	"github.com/nimasrn/time-capsule/internal/config"
	"github.com/nimasrn/time-capsule/pkg/logger"
	"github.com/nimasrn/time-capsule/pkg/pg"
)

const defaultMigrationDir = "./migrations"

// cli --env=.env --dir=./migrations
func main() {
	defer logger.Sync()

	envPath := config.EnvPath(os.Args)
	if envPath == "" {
		if _, err := os.Stat(".env"); err == nil {
			envPath = ".env"
		}
	}
	if err := config.Load(envPath); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dir := migrationDir(os.Args)
	if _, err := os.Stat(dir); err != nil {
		logger.Error("migration directory is not readable", "dir", dir, "error", err)
		os.Exit(1)
	}

	if err := pg.Migrate(config.Get().PostgresWrite(), dir); err != nil {
		logger.Error("migration: error running migrations", "error", err)
		os.Exit(1)
	}
}

func migrationDir(args []string) string {
	for _, arg := range args {
		if strings.HasPrefix(arg, "--dir=") {
			return strings.TrimPrefix(arg, "--dir=")
		}
	}
	return defaultMigrationDir
}

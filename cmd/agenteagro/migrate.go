package main

import (
	"fmt"
	"os"

	"github.com/agenteagro/agenteagro/internal/config"
	"github.com/agenteagro/agenteagro/internal/db"
	"github.com/agenteagro/agenteagro/internal/logger"
)

func runMigrate() error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	if err := db.Migrate(cfg.Postgres); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	logger.L.Info("migrations applied")
	return nil
}

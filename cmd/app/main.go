package main

import (
	"github.com/rs/zerolog/log"

	"todo/config"
	"todo/di"
	"todo/helper"
	"todo/shared/logger"
)

// @title Todo API
// @version 1.0
// @description CRUD API for todo items.
// @BasePath /api/v1
func main() {
	cfg := config.Get()

	logger.InitLogger(cfg)

	logger.SetLogLevel(cfg)

	if cfg.DB.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	http := di.InitializeService()
	http.Serve()
}

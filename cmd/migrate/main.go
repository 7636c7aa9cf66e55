package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"todo/config"
	"todo/helper"
	"todo/shared/logger"
)

const (
	argLength = 2
)

func main() {
	cfg := config.Get()

	logger.InitLogger(cfg)

	if len(os.Args) < argLength {
		log.Fatal().Msg("Migration direction (up/down/drop/step-up) is required")
	}

	if err := helper.Runner(cfg, os.Args[1]); err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("Migration failed")
	}
}

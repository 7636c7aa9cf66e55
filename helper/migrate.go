package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	"todo/config"
	"todo/infras/mongodb"
	"todo/infras/postgres"
)

const (
	ActionUp     = "up"
	ActionDown   = "down"
	ActionStepUp = "step-up"
	ActionDrop   = "drop"
)

var ErrUnknownAction = errors.New("unknown migration action, use 'up', 'down', 'drop' or 'step-up'")

// DatabaseURL returns the golang-migrate source folder and database URL for the configured driver.
func DatabaseURL(cfg *config.Config) (source, database string) {
	folder, dsn, tableParam := "mongodb", mongodb.URI(*cfg, true), "x-migrations-collection"
	if cfg.DB.Driver == config.DriverPostgres {
		folder, dsn, tableParam = "postgres", postgres.WriteDSN(*cfg), "x-migrations-table"
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return "file://migrations/" + folder, dsn + separator + tableParam + "=" + url.QueryEscape(cfg.DB.MigrationTable)
}

func getConnection(cfg *config.Config) (*migrate.Migrate, error) {
	source, database := DatabaseURL(cfg)

	mig, err := migrate.New(source, database)
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}

	return mig, nil
}

func Runner(cfg *config.Config, action string) error {
	if !validAction(action) {
		return ErrUnknownAction
	}

	mig, err := getConnection(cfg)
	if err != nil {
		return err
	}

	defer mig.Close()

	switch action {
	case ActionUp:
		if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("error running migrations: %w", err)
		}

		log.Info().Str("driver", cfg.DB.Driver).Msg("Database migrations completed successfully")
	case ActionDown:
		if err := mig.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("error rolling back migrations: %w", err)
		}

		log.Info().Str("driver", cfg.DB.Driver).Msg("Database migrations rolled back successfully")
	case ActionStepUp:
		if err := mig.Steps(1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("error running migrations: %w", err)
		}

		log.Info().Str("driver", cfg.DB.Driver).Msg("Database migrations completed successfully")
	case ActionDrop:
		if err := mig.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("error rolling back migrations: %w", err)
		}

		log.Info().Str("driver", cfg.DB.Driver).Msg("Database migrations rolled back successfully")
	}

	return nil
}

func validAction(action string) bool {
	switch action {
	case ActionUp, ActionDown, ActionStepUp, ActionDrop:
		return true
	}

	return false
}

func Up(cfg *config.Config) error {
	return Runner(cfg, ActionUp)
}

func StepUp(cfg *config.Config) error {
	return Runner(cfg, ActionStepUp)
}

func Down(cfg *config.Config) error {
	return Runner(cfg, ActionDown)
}

func Drop(cfg *config.Config) error {
	return Runner(cfg, ActionDrop)
}

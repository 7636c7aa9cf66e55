package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"todo/shared/validator"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Env                 string `envconfig:"ENV" default:"development"`
		LogLevel            string `envconfig:"LOG_LEVEL"`
		Port                string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
		Host                string `envconfig:"HOST" default:"0.0.0.0"`
		ReadTimeoutSeconds  int    `envconfig:"READ_TIMEOUT_SECONDS" default:"15" validate:"gte=0"`
		WriteTimeoutSeconds int    `envconfig:"WRITE_TIMEOUT_SECONDS" default:"0" validate:"gte=0"`
		Shutdown            struct {
			CleanupPeriodSeconds int64 `envconfig:"CLEANUP_PERIOD_SECONDS" default:"5" validate:"gte=0"`
			GracePeriodSeconds   int64 `envconfig:"GRACE_PERIOD_SECONDS" default:"5" validate:"gte=0"`
		} `envconfig:"SHUTDOWN"`
	} `envconfig:"SERVER"`

	App struct {
		Name     string `envconfig:"NAME" default:"todo"`
		Timezone string `envconfig:"TIMEZONE" default:"UTC"`
		CORS     struct {
			AllowCredentials bool     `envconfig:"ALLOW_CREDENTIALS"`
			AllowedHeaders   []string `envconfig:"ALLOWED_HEADERS"`
			AllowedMethods   []string `envconfig:"ALLOWED_METHODS"`
			AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS"`
			Enable           bool     `envconfig:"ENABLE"`
			MaxAgeSeconds    int      `envconfig:"MAX_AGE_SECONDS"`
		} `envconfig:"CORS"`
		RateLimiter struct {
			Enable        bool `envconfig:"ENABLE"`
			MaxRequests   int  `envconfig:"MAX_REQUESTS" validate:"gte=0"`
			WindowSeconds int  `envconfig:"WINDOW_SECONDS" validate:"gte=0"`
		} `envconfig:"RATE_LIMITER"`
	} `envconfig:"APP"`

	Cache struct {
		Redis struct {
			Enable  bool `envconfig:"ENABLE"`
			Primary struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Password string `envconfig:"PASSWORD"`
				DB       int    `envconfig:"DB"`
			} `envconfig:"PRIMARY"`
		} `envconfig:"REDIS"`
		TTL int `envconfig:"TTL" default:"300"`
	} `envconfig:"CACHE"`

	DB struct {
		Driver         string `envconfig:"DRIVER" default:"mongo" validate:"oneof=mongo postgres"`
		MaxRetry       int    `envconfig:"MAX_RETRY" default:"3" validate:"gte=1"`
		RetryWaitTime  int    `envconfig:"RETRY_WAIT_TIME" default:"2"`
		MigrationTable string `envconfig:"MIGRATION_TABLE" default:"schema_migrations"`
		AutoMigrate    bool   `envconfig:"AUTO_MIGRATE"`

		Mongo struct {
			Host       string `envconfig:"HOST" default:"localhost"`
			Port       string `envconfig:"PORT" default:"27017"`
			Username   string `envconfig:"USER"`
			Password   string `envconfig:"PASSWORD"`
			Name       string `envconfig:"NAME" default:"todo"`
			AuthSource string `envconfig:"AUTH_SOURCE"`
			TimeoutSec int    `envconfig:"TIMEOUT_SECONDS" default:"10"`
		} `envconfig:"MONGO"`

		Postgres struct {
			Prefix string `envconfig:"PREFIX"`
			Read   struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Username string `envconfig:"USER"`
				Password string `envconfig:"PASSWORD"`
				Name     string `envconfig:"NAME"`
				SSLMode  string `envconfig:"SSL_MODE" default:"disable"`
			} `envconfig:"READ"`
			Write struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Username string `envconfig:"USER"`
				Password string `envconfig:"PASSWORD"`
				Name     string `envconfig:"NAME"`
				SSLMode  string `envconfig:"SSL_MODE" default:"disable"`
			} `envconfig:"WRITE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	Kafka struct {
		Enable  bool     `envconfig:"ENABLE"`
		Brokers []string `envconfig:"BROKERS"`
		Topic   string   `envconfig:"TOPIC" default:"todo.events"`
		SASL    struct {
			Username string `envconfig:"USERNAME"`
			Password string `envconfig:"PASSWORD"`
		} `envconfig:"SASL"`
	} `envconfig:"KAFKA"`

	External struct {
		Otel struct {
			Endpoint string `envconfig:"ENDPOINT"`
		} `envconfig:"OTEL"`
	} `envconfig:"EXTERNAL"`
}

var (
	conf    Config
	once    sync.Once
	initErr error
)

// Validate checks the loaded values and the combinations the infrastructure constructors rely on.
func (c *Config) Validate() error {
	if problems := validator.Problems(c); len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}

	if c.App.RateLimiter.Enable && (c.App.RateLimiter.MaxRequests == 0 || c.App.RateLimiter.WindowSeconds == 0) {
		return errors.New("invalid configuration: rate limiter requires APP_RATE_LIMITER_MAX_REQUESTS and APP_RATE_LIMITER_WINDOW_SECONDS")
	}

	if c.App.RateLimiter.Enable && !c.Cache.Redis.Enable {
		return errors.New("invalid configuration: APP_RATE_LIMITER_ENABLE requires CACHE_REDIS_ENABLE")
	}

	if c.Kafka.Enable && len(c.Kafka.Brokers) == 0 {
		return errors.New("invalid configuration: KAFKA_BROKERS is required when KAFKA_ENABLE is true")
	}

	if c.Cache.Redis.Enable && c.Cache.Redis.Primary.Host == "" {
		return errors.New("invalid configuration: CACHE_REDIS_PRIMARY_HOST is required when CACHE_REDIS_ENABLE is true")
	}

	return nil
}

// Init loads the configuration once. A failed load is remembered and returned by every later call.
func Init() error {
	once.Do(func() {
		initErr = load()
	})

	return initErr
}

func load() error {
	if err := godotenv.Load(".env"); err != nil {
		log.Warn().Err(err).Msg("Could not load .env file, continuing with existing environment variables")
	} else {
		log.Info().Msg("Successfully loaded variables from .env file into environment")
	}

	if err := envconfig.Process("", &conf); err != nil {
		return fmt.Errorf("processing environment variables: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return err
	}

	log.Info().Str("driver", conf.DB.Driver).Msg("Service configuration initialized successfully")

	return nil
}

func Get() *Config {
	if err := Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	return &conf
}

package postgres

//nolint:revive
import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	configPkg "todo/config"
)

const (
	postgresMaxIdleConnection = 10
	postgresMaxOpenConnection = 10
)

type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

// New opens the read and write pools when postgres is the configured driver, nil otherwise.
func New(config *configPkg.Config) *Connection {
	if config.DB.Driver != configPkg.DriverPostgres {
		return nil
	}

	conn := &Connection{
		Read:  CreatePostgresReadConn(*config),
		Write: CreatePostgresWriteConn(*config),
	}
	if conn.Read == nil || conn.Write == nil {
		log.Fatal().Msg("Could not connect to Postgres")
	}

	return conn
}

// getDBName returns the database name with prefix if configured
func getDBName(config configPkg.Config, baseName string) string {
	if config.DB.Postgres.Prefix != "" {
		return config.DB.Postgres.Prefix + baseName
	}

	return baseName
}

// WriteDSN is the connection string of the primary, also used to run migrations.
func WriteDSN(config configPkg.Config) string {
	write := config.DB.Postgres.Write

	return DSN(write.Username, write.Password, write.Host, write.Port, getDBName(config, write.Name), write.SSLMode)
}

func ReadDSN(config configPkg.Config) string {
	read := config.DB.Postgres.Read

	return DSN(read.Username, read.Password, read.Host, read.Port, getDBName(config, read.Name), read.SSLMode)
}

func DSN(username, password, host, port, dbName, sslMode string) string {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(username, password),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + dbName,
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	dsn.RawQuery = query.Encode()

	return dsn.String()
}

// CreatePostgresWriteConn creates a database connection for write access.
func CreatePostgresWriteConn(config configPkg.Config) *sqlx.DB {
	write := config.DB.Postgres.Write

	return CreatePostgresConnection(
		"write",
		WriteDSN(config),
		write.Host,
		write.Port,
		config.DB.MaxRetry,
		config.DB.RetryWaitTime,
	)
}

// CreatePostgresReadConn creates a database connection for read access.
func CreatePostgresReadConn(config configPkg.Config) *sqlx.DB {
	read := config.DB.Postgres.Read

	return CreatePostgresConnection(
		"read",
		ReadDSN(config),
		read.Host,
		read.Port,
		config.DB.MaxRetry,
		config.DB.RetryWaitTime,
	)
}

// CreatePostgresConnection creates a database connection.
func CreatePostgresConnection(name, descriptor, host, port string, maxRetry, waitTime int) *sqlx.DB {
	for retry := range maxRetry {
		sqlDB, err := sqlx.Connect("postgres", descriptor)
		if err == nil {
			log.
				Info().
				Str("name", name).
				Str("host", host).
				Str("port", port).
				Msg("Connected to database")
			sqlDB.SetMaxIdleConns(postgresMaxIdleConnection)
			sqlDB.SetMaxOpenConns(postgresMaxOpenConnection)

			return sqlDB
		}

		log.
			Error().
			Err(err).
			Str("name", name).
			Str("host", host).
			Str("port", port).
			Int("attempt", retry+1).
			Msg("Failed connecting to database, retrying")

		time.Sleep(time.Duration(waitTime) * time.Second)
	}

	return nil
}

// Close releases both pools.
func (c *Connection) Close() error {
	if c == nil {
		return nil
	}

	for _, db := range []*sqlx.DB{c.Read, c.Write} {
		if db == nil {
			continue
		}

		if err := db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

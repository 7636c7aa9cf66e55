package mongodb

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	configPkg "todo/config"
)

type Connection struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// New opens the document store connection when it is the configured driver, nil otherwise.
func New(config *configPkg.Config) *Connection {
	if config.DB.Driver != configPkg.DriverMongo {
		return nil
	}

	client := CreateMongoConnection(*config)
	if client == nil {
		log.Fatal().Msg("Could not connect to MongoDB")
	}

	return &Connection{
		Client:   client,
		Database: client.Database(config.DB.Mongo.Name),
	}
}

// URI builds the connection string. When withDatabase is set the database name becomes the path,
// which is the form golang-migrate expects.
func URI(config configPkg.Config, withDatabase bool) string {
	mongoCfg := config.DB.Mongo

	uri := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(mongoCfg.Host, mongoCfg.Port),
		Path:   "/",
	}

	if mongoCfg.Username != "" {
		uri.User = url.UserPassword(mongoCfg.Username, mongoCfg.Password)
	}

	if withDatabase {
		uri.Path += mongoCfg.Name
	}

	if mongoCfg.AuthSource != "" {
		query := url.Values{}
		query.Set("authSource", mongoCfg.AuthSource)
		uri.RawQuery = query.Encode()
	}

	return uri.String()
}

// CreateMongoConnection connects and pings, retrying up to DB_MAX_RETRY times.
func CreateMongoConnection(config configPkg.Config) *mongo.Client {
	timeout := time.Duration(config.DB.Mongo.TimeoutSec) * time.Second
	clientOptions := options.Client().
		ApplyURI(URI(config, false)).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	for retry := range config.DB.MaxRetry {
		client, err := connect(clientOptions, timeout)
		if err == nil {
			log.
				Info().
				Str("host", config.DB.Mongo.Host).
				Str("port", config.DB.Mongo.Port).
				Str("dbName", config.DB.Mongo.Name).
				Msg("Connected to MongoDB")

			return client
		}

		log.
			Error().
			Err(err).
			Str("host", config.DB.Mongo.Host).
			Str("port", config.DB.Mongo.Port).
			Int("attempt", retry+1).
			Msg("Failed connecting to MongoDB, retrying")

		time.Sleep(time.Duration(config.DB.RetryWaitTime) * time.Second)
	}

	return nil
}

func connect(clientOptions *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())

		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return client, nil
}

// Close disconnects the client if there is one.
func (c *Connection) Close(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}

	if err := c.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	return nil
}

package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"iter"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"todo/config"
	"todo/infras/mongodb"
	"todo/infras/otel"
	"todo/infras/postgres"
	"todo/internal/domains/todo/model"
)

// Todo is the persistence port of the todo service.
type Todo interface {
	// FindAll lazily yields every todo. The sequence is single use.
	FindAll(ctx context.Context) iter.Seq2[model.Todo, error]
	// FindByID returns the zero Todo when id is unknown.
	FindByID(ctx context.Context, id string) (model.Todo, error)
	// Save inserts or replaces todo, assigning an id when it has none.
	Save(ctx context.Context, todo model.Todo) (model.Todo, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// New returns the adapter for the configured driver.
func New(cfg *config.Config, mongoConn *mongodb.Connection, pgConn *postgres.Connection, otel otel.Otel) Todo {
	if cfg.DB.Driver == config.DriverPostgres {
		return NewPostgres(pgConn, otel)
	}

	return NewMongo(mongoConn, otel)
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

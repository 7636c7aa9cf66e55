package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"todo/infras/mongodb"
	"todo/infras/otel"
	"todo/shared/constant"
	"todo/shared/logger"
)

const fieldID = "_id"

// Collection is a generic mongo backed store for one entity keyed by _id.
type Collection[T any] struct {
	collection *mongo.Collection
	otel       otel.Otel
	name       string
	entitas    string
}

func NewCollection[T any](entitasName, collectionName string, dbConnection *mongodb.Connection, otl otel.Otel) Collection[T] {
	return Collection[T]{
		collection: dbConnection.Database.Collection(collectionName),
		otel:       otl,
		name:       collectionName,
		entitas:    entitasName,
	}
}

// Iterate streams every document ordered by _id. The cursor is closed when the sequence is exhausted
// or the consumer stops.
func (repo *Collection[T]) Iterate(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Iterate", constant.OtelRepositoryScopeName, repo.entitas))
		defer scope.End()

		scope.SetAttribute(constant.OtelCollectionAttributeKey, repo.name)

		var zero T

		cursor, err := repo.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: fieldID, Value: 1}}))
		if err != nil {
			logger.ErrorWithStack(err)
			scope.TraceError(err)
			yield(zero, fmt.Errorf("failed to get all data (%s): %w", repo.entitas, err))

			return
		}
		defer cursor.Close(context.WithoutCancel(ctx))

		for cursor.Next(ctx) {
			var model T
			if err := cursor.Decode(&model); err != nil {
				scope.TraceError(err)
				yield(zero, fmt.Errorf("failed to decode data (%s): %w", repo.entitas, err))

				return
			}

			if !yield(model, nil) {
				return
			}
		}

		if err := cursor.Err(); err != nil {
			logger.ErrorWithStack(err)
			scope.TraceError(err)
			yield(zero, fmt.Errorf("failed to iterate data (%s): %w", repo.entitas, err))
		}
	}
}

// Get returns the document with the given _id, or the zero value when there is none.
func (repo *Collection[T]) Get(ctx context.Context, id any) (T, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Get", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()

	scope.SetAttribute(constant.OtelCollectionAttributeKey, repo.name)

	var model T

	err := repo.collection.FindOne(ctx, bson.D{{Key: fieldID, Value: id}}).Decode(&model)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model, nil
	}

	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return model, fmt.Errorf("failed to get data (%s): %w", repo.entitas, err)
	}

	return model, nil
}

// Upsert replaces the document with the given _id, inserting it when absent.
func (repo *Collection[T]) Upsert(ctx context.Context, id any, model T) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Upsert", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()

	scope.SetAttribute(constant.OtelCollectionAttributeKey, repo.name)

	_, err := repo.collection.ReplaceOne(ctx, bson.D{{Key: fieldID, Value: id}}, model, options.Replace().SetUpsert(true))
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to upsert data (%s): %w", repo.entitas, err)
	}

	return nil
}

// Delete removes the document with the given _id and reports whether one existed.
func (repo *Collection[T]) Delete(ctx context.Context, id any) (bool, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Delete", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()

	scope.SetAttribute(constant.OtelCollectionAttributeKey, repo.name)

	result, err := repo.collection.DeleteOne(ctx, bson.D{{Key: fieldID, Value: id}})
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to delete data (%s): %w", repo.entitas, err)
	}

	return result.DeletedCount > 0, nil
}

package repository

import (
	"context"
	"iter"

	"todo/infras/mongodb"
	"todo/infras/otel"
	"todo/internal/domains/todo/model"
	gRepo "todo/shared/repository"
)

type mongoImpl struct {
	gRepo.Collection[model.Todo]
}

func NewMongo(db *mongodb.Connection, otel otel.Otel) Todo {
	return &mongoImpl{
		Collection: gRepo.NewCollection[model.Todo](model.EntityName, model.TableName, db, otel),
	}
}

func (r *mongoImpl) FindAll(ctx context.Context) iter.Seq2[model.Todo, error] {
	return r.Iterate(ctx)
}

func (r *mongoImpl) FindByID(ctx context.Context, id string) (model.Todo, error) {
	return r.Get(ctx, id) //nolint:wrapcheck
}

func (r *mongoImpl) Save(ctx context.Context, todo model.Todo) (model.Todo, error) {
	if todo.ID == "" {
		todo.ID = newID()
	}

	if err := r.Upsert(ctx, todo.ID, todo); err != nil {
		return model.Todo{}, err //nolint:wrapcheck
	}

	return todo, nil
}

func (r *mongoImpl) DeleteByID(ctx context.Context, id string) (bool, error) {
	return r.Delete(ctx, id) //nolint:wrapcheck
}

package repository

import (
	"context"
	"iter"

	"todo/infras/otel"
	"todo/infras/postgres"
	"todo/internal/domains/todo/model"
	gRepo "todo/shared/repository"
)

type postgresImpl struct {
	gRepo.Table[model.Todo]
}

func NewPostgres(db *postgres.Connection, otel otel.Otel) Todo {
	return &postgresImpl{
		Table: gRepo.NewTable[model.Todo](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

func (r *postgresImpl) FindAll(ctx context.Context) iter.Seq2[model.Todo, error] {
	return r.Iterate(ctx)
}

func (r *postgresImpl) FindByID(ctx context.Context, id string) (model.Todo, error) {
	return r.Get(ctx, id) //nolint:wrapcheck
}

func (r *postgresImpl) Save(ctx context.Context, todo model.Todo) (model.Todo, error) {
	if todo.ID == "" {
		todo.ID = newID()
	}

	if err := r.Upsert(ctx, todo); err != nil {
		return model.Todo{}, err //nolint:wrapcheck
	}

	return todo, nil
}

func (r *postgresImpl) DeleteByID(ctx context.Context, id string) (bool, error) {
	return r.Delete(ctx, id) //nolint:wrapcheck
}

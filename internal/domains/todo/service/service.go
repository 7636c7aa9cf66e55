package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/rs/zerolog/log"

	"todo/config"
	"todo/infras/kafka"
	"todo/infras/otel"
	"todo/internal/domains/todo/model"
	"todo/internal/domains/todo/model/dto"
	"todo/internal/domains/todo/repository"
	"todo/shared"
	"todo/shared/cache"
	"todo/shared/constant"
	"todo/shared/failure"
)

type Todo interface {
	GetAll(ctx context.Context) iter.Seq2[dto.TodoResponse, error]
	Get(ctx context.Context, id string) (dto.TodoResponse, error)
	Create(ctx context.Context, req dto.TodoRequest) (dto.TodoResponse, error)
	Update(ctx context.Context, req dto.TodoRequest, id string) (dto.TodoResponse, error)
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo   repository.Todo
	cfg    *config.Config
	cache  cache.RedisCache
	events kafka.Client
	otel   otel.Otel
}

func New(repo repository.Todo, cfg *config.Config, cache cache.RedisCache, events kafka.Client, otel otel.Otel) Todo {
	return &serviceImpl{
		repo:   repo,
		cfg:    cfg,
		cache:  cache,
		events: events,
		otel:   otel,
	}
}

func (s *serviceImpl) GetAll(ctx context.Context) iter.Seq2[dto.TodoResponse, error] {
	return func(yield func(dto.TodoResponse, error) bool) {
		ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
		defer scope.End()

		for todo, err := range s.repo.FindAll(ctx) {
			if err != nil {
				scope.TraceError(err)
				yield(dto.TodoResponse{}, fmt.Errorf("failed to get todos: %w", err))

				return
			}

			if !yield(dto.NewTodoResponse(todo), nil) {
				return
			}
		}
	}
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.TodoResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(model.EntityName, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	if !errors.Is(err, cache.Nil) {
		log.Warn().Err(err).Str("key", cacheKey).Msg("failed to read todo from cache")
	}

	// read before the store so a delete or update landing after this point voids the fill
	generation, genErr := s.cache.Generation(ctx, cacheKey)

	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return res, fmt.Errorf("failed to get todo: %w", err)
	}

	if todo.ID == "" {
		return res, failure.NotFound("todo not found") // nolint:wrapcheck
	}

	res.FromModel(todo)

	if genErr != nil {
		log.Warn().Err(genErr).Str("key", cacheKey).Msg("skip caching todo")

		return res, nil
	}

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL, generation); err != nil && !errors.Is(err, cache.ErrStale) {
		log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache todo")
	}

	return res, nil
}

func (s *serviceImpl) Create(ctx context.Context, req dto.TodoRequest) (res dto.TodoResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	todo, err := s.repo.Save(ctx, req.ToModel())
	if err != nil {
		return res, fmt.Errorf("failed to create todo: %w", err)
	}

	res.FromModel(todo)

	if req.ID != "" {
		s.invalidate(ctx, todo.ID)
	}

	s.publish(ctx, constant.EventTypeCreated, res)

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.TodoRequest, id string) (res dto.TodoResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return res, fmt.Errorf("failed to check if todo exists: %w", err)
	}

	if existing.ID == "" {
		return res, failure.NotFound("todo not found") // nolint:wrapcheck
	}

	todo, err := s.repo.Save(ctx, req.ApplyTo(existing))
	if err != nil {
		return res, fmt.Errorf("failed to update todo: %w", err)
	}

	res.FromModel(todo)

	s.invalidate(ctx, id)
	s.publish(ctx, constant.EventTypeUpdated, res)

	return res, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check if todo exists: %w", err)
	}

	if existing.ID == "" {
		return failure.NotFound("todo not found") // nolint:wrapcheck
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	// lost a race with another delete
	if !deleted {
		return failure.NotFound("todo not found") // nolint:wrapcheck
	}

	s.invalidate(ctx, id)
	s.publish(ctx, constant.EventTypeDeleted, dto.NewTodoResponse(existing))

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	cacheKey := shared.BuildCacheKey(model.EntityName, id)

	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("failed to invalidate cached todo")
	}
}

func (s *serviceImpl) publish(ctx context.Context, eventType string, todo dto.TodoResponse) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".Publish")
	defer scope.End()

	scope.SetAttributes(map[string]any{
		"event.type":  eventType,
		"event.topic": s.cfg.Kafka.Topic,
	})

	err := s.events.SendMessages(ctx, s.cfg.Kafka.Topic, kafka.Message{
		Key:   todo.ID,
		Value: dto.TodoEvent{Type: eventType, Todo: todo},
	})
	if err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Str("type", eventType).Str("id", todo.ID).Msg("failed to publish todo event")
	}
}

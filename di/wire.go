//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"todo/config"
	"todo/infras/kafka"
	"todo/infras/mongodb"
	"todo/infras/otel"
	"todo/infras/postgres"
	"todo/infras/redis"
	todoRepository "todo/internal/domains/todo/repository"
	todoService "todo/internal/domains/todo/service"
	todoHandler "todo/internal/handlers/todo"
	"todo/shared/cache"
	"todo/transport/http"
	"todo/transport/http/middleware"
	"todo/transport/http/router"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	mongodb.New,
	postgres.New,
	otel.New,
	redis.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var todoDomain = wire.NewSet(
	todoRepository.New,
	todoService.New,
)

var domains = wire.NewSet(
	todoDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	todoHandler.New,
	router.New,
)

var server = wire.NewSet(
	wire.Struct(new(http.Resources), "*"),
	http.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		server,
	)

	return &http.HTTP{}
}

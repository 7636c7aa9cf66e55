package todo

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"todo/infras/otel"
	"todo/internal/domains/todo/model/dto"
	"todo/internal/domains/todo/service"
	"todo/shared/constant"
	"todo/shared/failure"
	"todo/shared/logger"
	"todo/shared/validator"
	"todo/transport/http/response"
)

type Handler struct {
	service service.Todo
	otel    otel.Otel
}

func New(service service.Todo, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/todos", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetTodos)
		routerGroup.Post("/", handler.CreateTodo)
		routerGroup.Get("/{id}", handler.GetTodoByID)
		routerGroup.Put("/{id}", handler.UpdateTodo)
		routerGroup.Delete("/{id}", handler.DeleteTodo)
	})
}

// GetTodos streams every todo item.
// @Summary Get all todo items
// @Description Stream all todo items as a JSON array, or as server-sent events when the client accepts text/event-stream.
// @Tags Todo
// @Produce json
// @Produce text/event-stream
// @Success 200 {array} dto.TodoResponse "List of todo items"
// @Failure 500 {object} response.Error
// @Router /todos [get]
func (handler *Handler) GetTodos(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTodos")
	defer scope.End()

	todos := handler.service.GetAll(ctx)

	if strings.Contains(r.Header.Get(constant.RequestHeaderAccept), constant.ContentTypeEventStream) {
		scope.SetAttribute("http.response.stream", "sse")
		response.WithEventStream(w, todos)

		return
	}

	response.WithJSONStream(w, todos)
}

// GetTodoByID retrieves a todo item by its ID.
// @Summary Get a todo item by ID
// @Description Retrieve a todo item by its unique identifier.
// @Tags Todo
// @Produce json
// @Param id path string true "Todo ID"
// @Success 200 {object} dto.TodoResponse "Todo item details"
// @Failure 404 "Todo not found"
// @Failure 500 {object} response.Error
// @Router /todos/{id} [get]
func (handler *Handler) GetTodoByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTodoByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	todo, err := handler.service.Get(ctx, id)
	if err != nil {
		handler.fail(w, r, scope, err, "failed to get todo by ID")

		return
	}

	response.WithJSON(w, http.StatusOK, todo)
}

// CreateTodo handles the creation of a new todo item.
// @Summary Create a new todo item
// @Description Create a todo item. The id is assigned by the store when omitted.
// @Tags Todo
// @Accept json
// @Produce json
// @Param request body dto.TodoRequest true "Todo"
// @Success 201 {object} dto.TodoResponse "Created todo item"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /todos [post]
func (handler *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateTodo")
	defer scope.End()

	req := dto.TodoRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		handler.fail(w, r, scope, err, "failed to validate request body")

		return
	}

	todo, err := handler.service.Create(ctx, req)
	if err != nil {
		handler.fail(w, r, scope, err, "failed to create todo")

		return
	}

	scope.AddEvent("Todo created " + todo.ID)

	response.WithJSON(w, http.StatusCreated, todo)
}

// UpdateTodo updates an existing todo item by its ID.
// @Summary Update a todo item by ID
// @Description Overwrite title, description and completed of an existing todo item. The id in the body is ignored.
// @Tags Todo
// @Accept json
// @Produce json
// @Param id path string true "Todo ID"
// @Param request body dto.TodoRequest true "Todo"
// @Success 200 {object} dto.TodoResponse "Updated todo item"
// @Failure 400 {object} response.Error
// @Failure 404 "Todo not found"
// @Failure 500 {object} response.Error
// @Router /todos/{id} [put]
func (handler *Handler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateTodo")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.TodoRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		handler.fail(w, r, scope, err, "failed to validate request body")

		return
	}

	todo, err := handler.service.Update(ctx, req, id)
	if err != nil {
		handler.fail(w, r, scope, err, "failed to update todo")

		return
	}

	response.WithJSON(w, http.StatusOK, todo)
}

// DeleteTodo deletes a todo item by its ID.
// @Summary Delete a todo item by ID
// @Description Delete a todo item using its unique identifier.
// @Tags Todo
// @Param id path string true "Todo ID"
// @Success 204 "Todo deleted"
// @Failure 404 "Todo not found"
// @Failure 500 {object} response.Error
// @Router /todos/{id} [delete]
func (handler *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteTodo")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		handler.fail(w, r, scope, err, "failed to delete todo")

		return
	}

	scope.AddEvent("Todo deleted " + id)

	response.WithNoContent(w)
}

// fail writes err to the client. Not found is expected traffic and is not treated as a span error.
func (handler *Handler) fail(w http.ResponseWriter, r *http.Request, scope otel.Scope, err error, msg string) {
	if failure.IsNotFound(err) {
		logger.Ctx(r.Context()).Debug().Err(err).Msg(msg)
	} else {
		scope.TraceError(err)
		logger.Ctx(r.Context()).Error().Err(err).Msg(msg)
	}

	response.WithError(w, err)
}

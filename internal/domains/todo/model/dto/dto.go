package dto

import (
	"todo/internal/domains/todo/model"
)

// TodoRequest is the body of create and update calls. ID is optional on create and ignored on update.
type TodoRequest struct {
	ID          string `json:"id,omitempty" example:"6650a1f4c2a4b1d2e3f40516"`
	Title       string `json:"title" example:"Todo 5"`
	Description string `json:"description" example:"Description 5"`
	Completed   bool   `json:"completed" example:"false"`
}

func (r *TodoRequest) ToModel() model.Todo {
	return model.Todo{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
}

// ApplyTo copies the mutable fields onto an existing record. The id of the record is kept.
func (r *TodoRequest) ApplyTo(todo model.Todo) model.Todo {
	todo.Title = r.Title
	todo.Description = r.Description
	todo.Completed = r.Completed

	return todo
}

type TodoResponse struct {
	ID          string `json:"id" example:"6650a1f4c2a4b1d2e3f40516"`
	Title       string `json:"title" example:"Todo 5"`
	Description string `json:"description" example:"Description 5"`
	Completed   bool   `json:"completed" example:"false"`
}

func (r *TodoResponse) FromModel(model model.Todo) {
	r.ID = model.ID
	r.Title = model.Title
	r.Description = model.Description
	r.Completed = model.Completed
}

func NewTodoResponse(model model.Todo) TodoResponse {
	var res TodoResponse
	res.FromModel(model)

	return res
}

// TodoEvent is published after every successful change.
type TodoEvent struct {
	Type string       `json:"type"`
	Todo TodoResponse `json:"todo"`
}

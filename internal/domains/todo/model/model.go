package model

const (
	TableName  = "todos"
	EntityName = "todo"

	FieldID          = "id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCompleted   = "completed"
)

type Todo struct {
	ID          string `bson:"_id" db:"id"`
	Title       string `bson:"title" db:"title"`
	Description string `bson:"description" db:"description"`
	Completed   bool   `bson:"completed" db:"completed"`
}

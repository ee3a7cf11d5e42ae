package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultListColor is assigned to lists created without an explicit color.
const DefaultListColor = "#4A90D9"

// Todo is a single actionable item owned by exactly one List.
type Todo struct {
	ID        uuid.UUID  `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

// List is a named, ordered collection of Todos.
type List struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Items     []Todo    `json:"items"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DueTodo is a todo annotated with its parent list, as returned by
// due-date queries.
type DueTodo struct {
	Todo
	ListID   uuid.UUID `json:"list_id"`
	ListName string    `json:"list_name"`
}

// NewTodo creates a todo with a generated id.
func NewTodo(text string, dueDate *time.Time) Todo {
	return Todo{
		ID:        uuid.New(),
		Text:      text,
		CreatedAt: time.Now(),
		DueDate:   dueDate,
	}
}

// NewList creates an empty list with a generated id and the default color.
func NewList(name string) *List {
	now := time.Now()
	return &List{
		ID:        uuid.New(),
		Name:      name,
		Items:     []Todo{},
		Color:     DefaultListColor,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasActiveReminder reports whether the todo should have a reminder
// scheduled: incomplete with a due date in the future.
func (t *Todo) HasActiveReminder(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.After(now)
}

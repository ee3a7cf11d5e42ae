// Package dispatch translates model tool calls into store mutations. One
// malformed call never aborts its batch; the model's intent is applied as
// far as it parses.
package dispatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/models"
	"github.com/voxtodo/voxtodo/internal/services/ai"
	"github.com/voxtodo/voxtodo/internal/store"
	"github.com/voxtodo/voxtodo/internal/validation"
	"go.uber.org/zap"
)

// Dispatcher applies tool-call batches to the store.
type Dispatcher struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates a dispatcher bound to one store.
func New(s *store.Store, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{store: s, logger: log}
}

// Result summarizes one batch: how many calls applied and how many were
// skipped as unknown or malformed.
type Result struct {
	Applied int
	Skipped int
}

// Apply runs the batch in order. Unknown names and malformed arguments
// are logged and skipped; the remaining calls still apply.
func (d *Dispatcher) Apply(calls []models.ToolCall) Result {
	var res Result
	for i, call := range calls {
		if err := d.applyOne(call); err != nil {
			d.logger.Warn("tool_call_skipped",
				zap.Int("index", i),
				zap.String("name", call.Name),
				zap.String("error", logger.SanitizeError(err)))
			res.Skipped++
			continue
		}
		res.Applied++
	}
	return res
}

func (d *Dispatcher) applyOne(call models.ToolCall) error {
	switch call.Name {
	case ai.ToolCreateListWithTasks:
		return d.createListWithTasks(call)
	case ai.ToolCreateTodosInList:
		return d.createTodosInList(call)
	case ai.ToolRenameList:
		return d.renameList(call)
	case ai.ToolUpdateTodo:
		return d.updateTodo(call)
	case ai.ToolDeleteTodo:
		return d.deleteTodo(call)
	case ai.ToolDeleteList:
		return d.deleteList(call)
	default:
		return fmt.Errorf("unknown tool name %q", call.Name)
	}
}

type createListWithTasksArgs struct {
	Title string            `json:"title" validate:"required"`
	Tasks []store.TaskInput `json:"tasks,omitempty"`
}

func (d *Dispatcher) createListWithTasks(call models.ToolCall) error {
	var args createListWithTasksArgs
	if err := call.DecodeArguments(&args); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	if err := validation.Validate.Struct(&args); err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	d.store.CreateListWithTasks(args.Title, args.Tasks)
	return nil
}

type createTodosInListArgs struct {
	ListID string            `json:"listId" validate:"required"`
	Todos  []store.TaskInput `json:"todos" validate:"required,min=1"`
}

func (d *Dispatcher) createTodosInList(call models.ToolCall) error {
	var args createTodosInListArgs
	if err := call.DecodeArguments(&args); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	if err := validation.Validate.Struct(&args); err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	listID, err := uuid.Parse(args.ListID)
	if err != nil {
		return fmt.Errorf("parse listId: %w", err)
	}
	d.store.CreateTodosInList(listID, args.Todos)
	return nil
}

type renameListArgs struct {
	ListID string `json:"listId" validate:"required"`
	Title  string `json:"title" validate:"required"`
}

func (d *Dispatcher) renameList(call models.ToolCall) error {
	var args renameListArgs
	if err := call.DecodeArguments(&args); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	if err := validation.Validate.Struct(&args); err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	listID, err := uuid.Parse(args.ListID)
	if err != nil {
		return fmt.Errorf("parse listId: %w", err)
	}
	d.store.RenameList(listID, args.Title)
	return nil
}

type updateTodoArgs struct {
	TodoID    string  `json:"todoId" validate:"required"`
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	// DueDate distinguishes three states: omitted keeps the current
	// value, empty string clears it, anything else is parsed.
	DueDate *string `json:"dueDate,omitempty"`
}

func (d *Dispatcher) updateTodo(call models.ToolCall) error {
	var args updateTodoArgs
	if err := call.DecodeArguments(&args); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	if err := validation.Validate.Struct(&args); err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	todoID, err := uuid.Parse(args.TodoID)
	if err != nil {
		return fmt.Errorf("parse todoId: %w", err)
	}

	patch := store.TodoPatch{Text: args.Text, Completed: args.Completed}
	if args.DueDate != nil {
		if *args.DueDate == "" {
			patch.ClearDue = true
		} else {
			due, err := time.Parse(time.RFC3339, *args.DueDate)
			if err != nil {
				return fmt.Errorf("parse dueDate: %w", err)
			}
			patch.DueDate = &due
		}
	}

	d.store.UpdateTodoByID(todoID, patch)
	return nil
}

type deleteTodoArgs struct {
	TodoID string `json:"todoId" validate:"required"`
}

func (d *Dispatcher) deleteTodo(call models.ToolCall) error {
	var args deleteTodoArgs
	if err := call.DecodeArguments(&args); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	if err := validation.Validate.Struct(&args); err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	todoID, err := uuid.Parse(args.TodoID)
	if err != nil {
		return fmt.Errorf("parse todoId: %w", err)
	}
	d.store.DeleteTodoByID(todoID)
	return nil
}

type deleteListArgs struct {
	ListID string `json:"listId" validate:"required"`
}

func (d *Dispatcher) deleteList(call models.ToolCall) error {
	var args deleteListArgs
	if err := call.DecodeArguments(&args); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	if err := validation.Validate.Struct(&args); err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	listID, err := uuid.Parse(args.ListID)
	if err != nil {
		return fmt.Errorf("parse listId: %w", err)
	}
	d.store.DeleteList(listID)
	return nil
}

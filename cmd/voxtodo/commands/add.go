package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewAddCmd creates the add command
func NewAddCmd() *cobra.Command {
	var listName string
	var listID string
	var due string

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a todo directly, without the assistant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			var dueDate *time.Time
			if due != "" {
				parsed, err := time.Parse(time.RFC3339, due)
				if err != nil {
					return fmt.Errorf("invalid --due, want RFC 3339: %w", err)
				}
				dueDate = &parsed
			}

			target, err := resolveList(e, listID, listName)
			if err != nil {
				return err
			}
			if target == uuid.Nil {
				// No list addressed: create one named after the flag or a default
				name := listName
				if name == "" {
					name = "Todos"
				}
				list := e.store.AddList(name)
				target = list.ID
			}

			todo := e.store.AddTodoToList(target, args[0], dueDate)
			if todo == nil {
				return fmt.Errorf("list not found")
			}
			fmt.Printf("Added %s to list %s\n", todo.ID, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&listName, "list", "", "Target list by name (created if missing and no --list-id given)")
	cmd.Flags().StringVar(&listID, "list-id", "", "Target list by id")
	cmd.Flags().StringVar(&due, "due", "", "Due date, RFC 3339")

	return cmd
}

// resolveList finds a list by id or name. Returns uuid.Nil when nothing
// was addressed or the named list does not exist yet.
func resolveList(e *env, listID, listName string) (uuid.UUID, error) {
	if listID != "" {
		id, err := uuid.Parse(listID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid --list-id: %w", err)
		}
		return id, nil
	}
	if listName != "" {
		for _, list := range e.store.Lists() {
			if list.Name == listName {
				return list.ID, nil
			}
		}
	}
	return uuid.Nil, nil
}

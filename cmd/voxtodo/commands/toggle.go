package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewToggleCmd creates the toggle command
func NewToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle [todo-id]",
		Short: "Flip a todo's completion state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			todoID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid todo id: %w", err)
			}

			listID, ok := findOwner(e, todoID)
			if !ok {
				return fmt.Errorf("todo not found")
			}
			e.store.ToggleTodo(listID, todoID)
			printLists(e)
			return nil
		},
	}

	return cmd
}

// findOwner locates the list containing a todo.
func findOwner(e *env, todoID uuid.UUID) (uuid.UUID, bool) {
	for _, list := range e.store.Lists() {
		for _, todo := range list.Items {
			if todo.ID == todoID {
				return list.ID, true
			}
		}
	}
	return uuid.Nil, false
}

// NewRmCmd creates the rm command
func NewRmCmd() *cobra.Command {
	var deleteList bool

	cmd := &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a todo, or a whole list with --list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id: %w", err)
			}

			if deleteList {
				if _, ok := e.store.GetList(id); !ok {
					return fmt.Errorf("list not found")
				}
				e.store.DeleteList(id)
				fmt.Println("List deleted")
				return nil
			}

			if _, ok := findOwner(e, id); !ok {
				return fmt.Errorf("todo not found")
			}
			e.store.DeleteTodoByID(id)
			fmt.Println("Todo deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteList, "list", false, "Delete a list instead of a todo")

	return cmd
}

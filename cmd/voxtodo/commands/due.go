package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDueCmd creates the due command
func NewDueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Show all todos with due dates, soonest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			todos := e.store.AllTodosWithDueDates()
			if len(todos) == 0 {
				fmt.Println("Nothing due")
				return nil
			}
			for _, todo := range todos {
				glyph := "[ ]"
				if todo.Completed {
					glyph = "[x]"
				}
				fmt.Printf("%s %s  %s  (%s, due %s)\n",
					glyph, todo.ID, todo.Text, todo.ListName,
					todo.DueDate.Format("Jan 2 15:04"))
			}
			return nil
		},
	}

	return cmd
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewSayCmd creates the say command
func NewSayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "say [transcript]",
		Short: "Send a natural-language command to the assistant",
		Long:  "Send a transcript to the assistant; resulting tool calls are applied to the local store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			transcript := strings.Join(args, " ")
			if err := e.processor.Process(cmd.Context(), transcript); err != nil {
				return fmt.Errorf("round failed: %w", err)
			}

			printLists(e)
			return nil
		},
	}

	return cmd
}

// printLists renders the current store state.
func printLists(e *env) {
	lists := e.store.Lists()
	if len(lists) == 0 {
		fmt.Println("No lists yet")
		return
	}
	for _, list := range lists {
		fmt.Printf("%s  %s (%d items)\n", list.ID, list.Name, len(list.Items))
		for _, todo := range list.Items {
			glyph := "[ ]"
			if todo.Completed {
				glyph = "[x]"
			}
			fmt.Printf("  %s %s  %s", glyph, todo.ID, todo.Text)
			if todo.DueDate != nil {
				fmt.Printf("  (due %s)", todo.DueDate.Format("Jan 2 15:04"))
			}
			fmt.Println()
		}
	}
}

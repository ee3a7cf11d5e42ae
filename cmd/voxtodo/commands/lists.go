package commands

import (
	"github.com/spf13/cobra"
)

// NewListsCmd creates the lists command
func NewListsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show all lists and their todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			printLists(e)
			return nil
		},
	}

	return cmd
}

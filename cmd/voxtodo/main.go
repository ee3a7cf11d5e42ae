package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/voxtodo/voxtodo/cmd/voxtodo/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "voxtodo",
		Short: "Voice-driven todo client",
		Long:  "CLI client for the voxtodo gateway: speak (or type) commands, manage lists and todos, check token usage",
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.voxtodo/config.yaml)")

	rootCmd.AddCommand(commands.NewSayCmd())
	rootCmd.AddCommand(commands.NewListsCmd())
	rootCmd.AddCommand(commands.NewAddCmd())
	rootCmd.AddCommand(commands.NewToggleCmd())
	rootCmd.AddCommand(commands.NewRmCmd())
	rootCmd.AddCommand(commands.NewDueCmd())
	rootCmd.AddCommand(commands.NewUsageCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/voxtodo/voxtodo/internal/models"
)

// NewUsageCmd creates the usage command
func NewUsageCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show trailing-30-day token usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if cached {
				snap, ok := e.store.UsageSnapshot()
				if !ok {
					fmt.Println("No cached usage; run without --cached")
					return nil
				}
				printSnapshot(snap)
				return nil
			}

			summary, err := e.remote.TokenUsage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch token usage: %w", err)
			}

			// Refresh the local snapshot; never authoritative, just a
			// cache for offline display.
			e.store.SetUsageSnapshot(models.UsageSnapshot{
				RemainingTokens: summary.RemainingTokens,
				TotalUsed:       summary.Usage30Days,
				MonthlyLimit:    summary.Limit,
				LastUpdated:     time.Now(),
			})

			fmt.Printf("Used:      %d tokens\n", summary.Usage30Days)
			fmt.Printf("Limit:     %d tokens\n", summary.Limit)
			fmt.Printf("Remaining: %d tokens (%.1f%% used)\n", summary.RemainingTokens, summary.PercentageUsed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "Show the last cached snapshot without calling the gateway")

	return cmd
}

func printSnapshot(snap models.UsageSnapshot) {
	fmt.Printf("Used:      %d tokens\n", snap.TotalUsed)
	fmt.Printf("Limit:     %d tokens\n", snap.MonthlyLimit)
	fmt.Printf("Remaining: %d tokens (as of %s)\n", snap.RemainingTokens, snap.LastUpdated.Format(time.RFC822))
}

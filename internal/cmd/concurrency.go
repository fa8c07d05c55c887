package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rssdigest/app"
	"rssdigest/internal/control"
)

func newSetConcurrencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-concurrency N",
		Short: "Change how many summaries a running watch requests at once per feed",
		Long: `set-concurrency caps the in-flight summarization calls per feed of a running watch.
0 removes the cap.`,
		Example: "  rssdigest set-concurrency 4",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 || n > app.MaxConcurrency {
				return fmt.Errorf("concurrency should be between 0 and %d", app.MaxConcurrency)
			}

			addr, err := controlAddr()
			if err != nil {
				return err
			}
			old, err := control.NewClient(addr).SetConcurrency(cmd.Context(), n)
			if err != nil {
				return fmt.Errorf("could not set concurrency: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Summarization concurrency changed from %s to %s\n", limitString(old), limitString(n))
			return nil
		},
	}
}

func limitString(n int) string {
	if n == 0 {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

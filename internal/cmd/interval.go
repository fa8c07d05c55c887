package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rssdigest/internal/control"
)

func newSetIntervalCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set-interval DURATION",
		Short:   "Change the update interval of a running watch",
		Example: "  rssdigest set-interval 30m",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			if d <= 0 {
				return fmt.Errorf("duration must be > 0")
			}

			addr, err := controlAddr()
			if err != nil {
				return err
			}
			old, err := control.NewClient(addr).SetInterval(cmd.Context(), d)
			if err != nil {
				return fmt.Errorf("could not set interval: %w", err)
			}

			if old == d {
				fmt.Fprintf(cmd.OutOrStdout(), "Interval is already set to %s (no change)\n", d)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Interval of updating feeds changed from %s to %s\n", old, d)
			return nil
		},
	}
}

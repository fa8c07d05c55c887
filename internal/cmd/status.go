package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"rssdigest/internal/config"
	"rssdigest/internal/control"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show interval, concurrency and last batch of a running watch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := controlAddr()
			if err != nil {
				return err
			}
			st, err := control.NewClient(addr).Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not reach watch at %s: %w", addr, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Interval:     %s\n", st.Interval)
			if st.NextRun != nil {
				fmt.Fprintf(out, "Next run:     %s\n", st.NextRun.Local().Format(time.DateTime))
			}
			fmt.Fprintf(out, "Concurrency:  %s\n", limitString(st.Concurrency))
			if st.LastRun == nil {
				fmt.Fprintln(out, "Last run:     none yet")
				return nil
			}

			r := st.LastRun
			failed := r.Failed()
			sort.Strings(failed)
			fmt.Fprintf(out, "Last run:     %s (%s, %d/%d ok)\n",
				r.FinishedAt.Local().Format(time.DateTime),
				r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
				len(r.Results)-len(failed), len(r.Results))
			for _, u := range failed {
				fmt.Fprintf(out, "  failed: %s\n", u)
			}
			return nil
		},
	}
}

func controlAddr() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.ControlAddr, nil
}

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	var (
		sources []string
		strict  bool
	)
	c := &cobra.Command{
		Use:   "update",
		Short: "Fetch, reconcile and summarize every feed once",
		Example: `  rssdigest update
  rssdigest update --source https://hnrss.org/frontpage --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := loadDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			updater, _, err := d.newUpdater(nil)
			if err != nil {
				return err
			}

			var results map[string]bool
			if len(sources) == 0 {
				results = updater.UpdateAll(cmd.Context())
			} else if results, err = updater.UpdateSources(cmd.Context(), sources); err != nil {
				return err
			}

			urls := make([]string, 0, len(results))
			for u := range results {
				urls = append(urls, u)
			}
			sort.Strings(urls)

			var failed int
			out := cmd.OutOrStdout()
			for _, u := range urls {
				mark := "ok"
				if !results[u] {
					mark = "FAILED"
					failed++
				}
				fmt.Fprintf(out, "%-7s %s\n", mark, u)
			}
			fmt.Fprintf(out, "\nUpdated %d of %d feeds\n", len(urls)-failed, len(urls))

			if strict && failed > 0 {
				return fmt.Errorf("%d feed(s) failed to update", failed)
			}
			return nil
		},
	}
	c.Flags().StringArrayVar(&sources, "source", nil, "feed URL to update (repeatable, default: all)")
	c.Flags().BoolVar(&strict, "strict", false, "exit with an error if any feed fails")
	return c
}

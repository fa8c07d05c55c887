package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rssdigest/domain"
)

func newShowCmd() *cobra.Command {
	var (
		source string
		num    int
	)
	c := &cobra.Command{
		Use:   "show",
		Short: "Print the stored snapshot of a feed",
		Example: `  rssdigest show
  rssdigest show --source https://hnrss.org/frontpage --num 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if num <= 0 {
				return fmt.Errorf("--num must be > 0")
			}
			d, err := loadDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			src := d.registry.DefaultSource()
			if source = strings.TrimSpace(source); source != "" {
				var ok bool
				if src, ok = d.registry.FindByURL(source); !ok {
					return fmt.Errorf("%w: %s", domain.ErrUnknownSource, source)
				}
			}

			out := cmd.OutOrStdout()
			snap, ok, err := d.store.Load(cmd.Context(), src.URL)
			if err != nil {
				return fmt.Errorf("could not read snapshot for %q: %w", src.Name, err)
			}
			if !ok {
				fmt.Fprintf(out, "No snapshot stored for %q yet, run `rssdigest update` first\n", src.Name)
				return nil
			}

			fmt.Fprintf(out, "%s (%s)\nLast updated: %s\n\n", src.Name, snap.Title, snap.LastUpdated.Format("2006-01-02 15:04 MST"))
			for i, it := range snap.Items {
				if i == num {
					break
				}
				fmt.Fprintf(out, "%d. %s\n   %s\n", i+1, it.Title, it.Link)
				if it.Summary != "" {
					fmt.Fprintf(out, "   %s\n", indent(it.Summary, "   "))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	c.Flags().StringVar(&source, "source", "", "feed URL (default: first configured feed)")
	c.Flags().IntVar(&num, "num", 3, "number of entries")
	return c
}

func indent(s, prefix string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n"+prefix)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"rssdigest/internal/config"
	"rssdigest/internal/registry"
)

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured feeds grouped by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if sourcesFile != "" {
				cfg.SourcesFile = sourcesFile
			}
			reg, err := registry.Load(cfg.SourcesFile)
			if err != nil {
				return err
			}
			if reg, err = reg.WithOverrides(cfg.MaxItemsPerFeed, cfg.DataPath); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configured RSS Feeds (keeping %d entries each)\n\n", reg.MaxItemsPerFeed())
			for _, cat := range reg.ByCategory() {
				name := cat.Name
				if name == "" {
					name = "Uncategorized"
				}
				fmt.Fprintf(out, "%s\n", name)
				for i, src := range cat.Sources {
					fmt.Fprintf(out, "  %d. %s\n     URL: %s\n", i+1, src.Name, src.URL)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

// Package cmd contains the rssdigest CLI commands.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	sourcesFile string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "rssdigest",
	Short: "Fetch feeds, keep bounded snapshots, summarize new entries",
	Long: `rssdigest pulls a fixed list of RSS/Atom feeds, merges every feed with its stored
snapshot, asks an LLM to summarize entries it has not seen before, and saves the result.

Common Commands:
  update           fetch every feed once and exit
  watch            keep updating feeds on an interval (control server included)
  sources          list configured feeds by category
  show             print the stored snapshot of a feed
  set-interval     change the update interval of a running watch
  set-concurrency  change the summarization concurrency of a running watch
  status           show the state of a running watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sourcesFile, "sources", "", "sources YAML file (default: SOURCES_FILE or built-in list)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default: LOG_LEVEL)")

	rootCmd.AddCommand(
		newUpdateCmd(),
		newWatchCmd(),
		newSourcesCmd(),
		newShowCmd(),
		newSetIntervalCmd(),
		newSetConcurrencyCmd(),
		newStatusCmd(),
	)
}

// Package cli contains the contentranker commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ContentRanker/internal/config"
	"ContentRanker/internal/infrastructure/source"
	"ContentRanker/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "contentranker",
		Short: "Score, deduplicate and rank collected content",
		Long: `contentranker filters collected articles and posts down to a ranked,
source-diverse shortlist.

Example usage:
  contentranker run --input items.json      # rank one batch, print the result
  contentranker run --input - --emit        # read stdin, push ranked items to the queue
  contentranker topics --input items.json   # weighted topic ranking
  contentranker serve                       # scheduled runs plus /metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $CONTENT_RANKER_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging level")

	root.AddCommand(
		newRunCommand(opts),
		newTopicsCommand(opts),
		newServeCommand(opts),
	)
	return root
}

func (o *rootOptions) load(cmd *cobra.Command) (config.Config, *slog.Logger) {
	cfg := config.Load(o.configPath)
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	// stdout carries command output
	return cfg, logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
}

func readInput(cmd *cobra.Command, path string) ([]any, error) {
	if path == "" || path == "-" {
		return source.ReadBatch(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return source.ReadBatch(f)
}

func writeOutput(cmd *cobra.Command, path string, v any) error {
	var w io.Writer = cmd.OutOrStdout()
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

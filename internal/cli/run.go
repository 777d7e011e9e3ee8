package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ContentRanker/internal/app"
	"ContentRanker/internal/domain"
)

type runOptions struct {
	input        string
	output       string
	emit         bool
	minScore     float64
	maxResults   int
	maxPerSource int
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rank one batch of items",
		Long: `Reads a JSON array (or {"items": [...]}) and prints the ProcessResult.
Without --input the configured sources are scanned instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := root.load(cmd)

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			base := application.Pipeline().Config()
			logger.Debug("processing config",
				"min_quality_score", base.MinQualityScore,
				"max_results", base.MaxResults,
				"max_per_source", base.MaxPerSource,
			)

			var result domain.ProcessResult
			if opts.input == "" {
				// scanning configured sources emits by itself when a queue is set
				result, err = application.Run(cmd.Context())
				if err != nil {
					return err
				}
			} else {
				raw, err := readInput(cmd, opts.input)
				if err != nil {
					return err
				}
				result = application.Pipeline().ProcessItems(cmd.Context(), raw, opts.overrides(cmd))

				if opts.emit && result.Status == domain.StatusSuccess {
					ok, msg := application.Pipeline().Emit(cmd.Context(), result.Items)
					if !ok {
						return fmt.Errorf("emit: %s", msg)
					}
					logger.Info(msg)
				}
			}

			if err := writeOutput(cmd, opts.output, result); err != nil {
				return err
			}
			if result.Status != domain.StatusSuccess {
				return fmt.Errorf("run %s: %s", result.RunID, result.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", `input JSON file, "-" for stdin`)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.emit, "emit", false, "send ranked items to the processor queue")
	cmd.Flags().Float64Var(&opts.minScore, "min-score", domain.DefaultMinQualityScore, "minimum quality score")
	cmd.Flags().IntVar(&opts.maxResults, "max-results", domain.DefaultMaxResults, "maximum ranked items")
	cmd.Flags().IntVar(&opts.maxPerSource, "max-per-source", domain.DefaultMaxPerSource, "maximum items per source")
	return cmd
}

// overrides only carries flags the user actually set, so config values win otherwise.
func (o *runOptions) overrides(cmd *cobra.Command) domain.ProcessingOverrides {
	var out domain.ProcessingOverrides
	if cmd.Flags().Changed("min-score") {
		out.MinQualityScore = &o.minScore
	}
	if cmd.Flags().Changed("max-results") {
		out.MaxResults = &o.maxResults
	}
	if cmd.Flags().Changed("max-per-source") {
		out.MaxPerSource = &o.maxPerSource
	}
	return out
}

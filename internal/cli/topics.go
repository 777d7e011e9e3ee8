package cli

import (
	"time"

	"github.com/spf13/cobra"

	"ContentRanker/internal/app"
	"ContentRanker/internal/domain"
	"ContentRanker/internal/usecase"
)

type topicsOutput struct {
	Topics []domain.ContentItem `json:"topics"`
	Errors []string             `json:"errors,omitempty"`
}

func newTopicsCommand(root *rootOptions) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Rank items by engagement, monetization, recency and title quality",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := root.load(cmd)

			raw, err := readInput(cmd, input)
			if err != nil {
				return err
			}
			items, errs := usecase.ValidateItems(raw)

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			ranked := application.RankTopics(items, time.Now())
			out := topicsOutput{Topics: make([]domain.ContentItem, 0, len(ranked)), Errors: errs}
			for _, topic := range ranked {
				out.Topics = append(out.Topics, topic.Item)
			}
			logger.Debug("topics ranked", "input", len(raw), "valid", len(items), "ranked", len(ranked))

			return writeOutput(cmd, output, out)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", `input JSON file, "-" for stdin`)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

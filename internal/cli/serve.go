package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ContentRanker/internal/app"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled ranking and expose Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := root.load(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Serve(ctx)
		},
	}
}

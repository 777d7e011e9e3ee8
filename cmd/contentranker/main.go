package main

import (
	"context"
	"os"

	"ContentRanker/internal/cli"
	"ContentRanker/internal/logging"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		logging.NewWithWriter(os.Stderr, "error", "text").Error("command failed", "error", err)
		os.Exit(1)
	}
}

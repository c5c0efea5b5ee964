package main

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/draftboard/internal/cli"
	"github.com/okian/draftboard/pkg/logger"
)

func main() {
	// Commands re-initialize logging once the configured format is known.
	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}

	if err := cli.RootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Unable to start", "error", err, "detail", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}

func run() error {
	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := initializeApp(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer cleanup()

	app.Logger.InfoContext(ctx, "starting happy path",
		"platform_url", app.Config.PlatformURL,
		"devfile", app.Config.DescriptorLocator,
		"e2e_version", app.Config.E2EVersion)

	return app.Pipeline.Execute(ctx)
}

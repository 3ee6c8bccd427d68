package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexjbarnes/build-cli/internal/cli"
	"github.com/alexjbarnes/build-cli/internal/config"
)

var Version = "dev"

func main() {
	if err := run(); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Ctrl-C aborts in-flight requests and delays; the command then exits 1.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.Version = Version

	app := cli.NewApp(cfg, os.Stdout, os.Stderr)
	defer app.Close()

	return app.Execute(ctx, os.Args[1:])
}

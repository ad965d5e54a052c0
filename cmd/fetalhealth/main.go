package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		cancel()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/edi-sejahtera/sejahtera/cmd/sejahtera/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		slog.Default().Error("command failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/formrelay/internal/client/cli"
	"github.com/dmitrijs2005/formrelay/internal/client/config"
)

func main() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("failed to start client: %v", err)
	}

	app.Run(ctx)
}

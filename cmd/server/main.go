package main

import (
	"context"
	"log"

	server "github.com/dmitrijs2005/formrelay/internal/server"
	"github.com/dmitrijs2005/formrelay/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	ctx := context.Background()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	app.Run(ctx)
}

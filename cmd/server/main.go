package main

import (
	"context"
	"log"

	"github.com/swaphubteam/SwapIt/internal/server"
	"github.com/swaphubteam/SwapIt/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}

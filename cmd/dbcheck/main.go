package main

import (
	"context"
	"log"
	"os"

	"github.com/swaphubteam/SwapIt/internal/dbcheck"
	"github.com/swaphubteam/SwapIt/internal/logging"
	"github.com/swaphubteam/SwapIt/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.NewForEnvironment(cfg.Environment, os.Stderr)

	if err := dbcheck.Run(context.Background(), os.Args[1:], cfg, os.Stdout, logger); err != nil {
		log.Fatalf("%v", err)
	}
}

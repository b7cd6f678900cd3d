package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/fieldsync/internal/client/cli"
	"github.com/dmitrijs2005/fieldsync/internal/client/config"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, closer := logging.New(cfg.LogLevel, logging.FileOptions{Path: cfg.LogFile})
	defer closer.Close()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer app.Close()

	app.Run(ctx)
}

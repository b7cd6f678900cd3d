package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/fieldsync/internal/server"
	"github.com/dmitrijs2005/fieldsync/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	if subject := config.IssueSubject(os.Args[1:]); subject != "" {
		token, err := server.IssueToken(cfg, subject)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(token)
		return
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}

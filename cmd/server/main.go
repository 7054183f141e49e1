package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/gophnotes/internal/server"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg, server.NewDefaultLogger())

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}

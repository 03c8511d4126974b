package main

import (
	"context"
	"log"

	"github.com/aleksvdm/gopherchat/internal/server"
	"github.com/aleksvdm/gopherchat/internal/server/config"
)

func main() {
	app, err := server.NewApp(config.LoadConfig())
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	app.Run(context.Background())
}

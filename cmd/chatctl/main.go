package main

import (
	"context"
	"log"
	"os"

	"github.com/aleksvdm/gopherchat/internal/chatctl"
	"github.com/aleksvdm/gopherchat/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := chatctl.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}

}

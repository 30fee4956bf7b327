package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/goalkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/goalkeeper/internal/server"
	"github.com/dmitrijs2005/goalkeeper/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}

package main

import (
	"flag"
	"log"
	"os"

	"OraclePortfolio/internal/di"
	"OraclePortfolio/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run blocks until SIGINT/SIGTERM
	err = app.Run()
	cleanup()
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

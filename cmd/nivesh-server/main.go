package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/niveshapp/nivesh/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to nivesh.toml (default: NIVESH_CONFIG, then binary dir)")
	flag.Parse()

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	if err := a.StartScheduler(); err != nil {
		a.Logger.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	a.Logger.Info().Msg("Market data service ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.Logger.Info().Msg("Shutdown signal received")

	a.Close()
	a.Logger.Info().Msg("Server stopped")
}

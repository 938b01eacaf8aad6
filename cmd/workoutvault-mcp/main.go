package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/workoutvault/internal/backend"
	"github.com/meltforce/workoutvault/internal/config"
	"github.com/meltforce/workoutvault/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	serverURL := flag.String("server", "", "read through a WorkoutVault server instead of the configured store")
	flag.Parse()

	// stdout carries the protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(*configPath, *serverURL, log); err != nil {
		log.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, serverURL string, log *slog.Logger) error {
	var ds mcp.DataSource
	if serverURL != "" {
		ds = mcp.NewHTTPClient(serverURL)
		log.Info("reading through server", "url", serverURL)
	} else {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		store, closeStore, err := backend.Open(context.Background(), cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()
		ds = store
	}

	return mcpserver.ServeStdio(mcp.New(ds, Version, log))
}

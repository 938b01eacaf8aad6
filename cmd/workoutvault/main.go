package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/meltforce/workoutvault/internal/backend"
	"github.com/meltforce/workoutvault/internal/catalog"
	"github.com/meltforce/workoutvault/internal/config"
	"github.com/meltforce/workoutvault/internal/localstate"
	"github.com/meltforce/workoutvault/internal/session"
	"github.com/meltforce/workoutvault/internal/tui"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var _ catalog.Tracker = (*localstate.DB)(nil)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The terminal belongs to the UI, so logs go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.Client.LogFile), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}
	logFile, err := os.OpenFile(cfg.Client.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	log := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("WorkoutVault starting", "version", Version, "driver", cfg.Store.Driver)

	actorID, err := cfg.Client.Actor()
	if err != nil {
		return err
	}

	tracker, err := localstate.Open(cfg.Client.StateDir)
	if err != nil {
		return err
	}
	defer tracker.Close()

	store, closeStore, err := backend.Open(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	m := tui.NewRootModel(store, tui.Options{
		Tracker: tracker,
		Actor:   session.Actor{ID: actorID},
		Log:     log,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	log.Info("WorkoutVault stopped")
	return nil
}

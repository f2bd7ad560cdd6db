package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Versifine/gravshift/internal/config"
	"github.com/Versifine/gravshift/internal/debug"
	"github.com/Versifine/gravshift/internal/game"
	"github.com/Versifine/gravshift/internal/inspector"
	"github.com/Versifine/gravshift/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		slog.Error("Failed to init logger", "error", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := game.New(cfg)
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		os.Exit(1)
	}

	if cfg.Inspector.Enabled {
		srv := inspector.NewServer(cfg.Inspector, session)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("Inspector failed", "error", err)
			}
		}()
	}

	switch cfg.Mode {
	case config.ModeConsole:
		session.Start(ctx)
		console := debug.NewConsole(session, cfg.Simulation.TickInterval, cfg.Character.LookSpeed)
		err = console.Start(ctx)
		stop()
		session.Wait()
	default:
		err = session.Run(ctx)
	}
	if err != nil {
		slog.Error("Session failed", "error", err)
		os.Exit(1)
	}
}

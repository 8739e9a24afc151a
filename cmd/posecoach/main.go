package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/posecoach/internal/config"
	"github.com/claude/posecoach/internal/mcp"
	"github.com/claude/posecoach/internal/program"
	"github.com/claude/posecoach/internal/server"
	"github.com/claude/posecoach/internal/session"
	"github.com/claude/posecoach/internal/storage"
	"github.com/claude/posecoach/internal/stream"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpStdio := flag.Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("PoseCoach starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open the persistence backend
	ctx := context.Background()
	var store program.Store
	switch cfg.Storage.Backend {
	case "postgres":
		dsn := cfg.Storage.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		log.Info("database connected")
	case "local":
		if *migrateOnly {
			log.Info("migrate-only: local backend has no migrations")
			return
		}
		local, err := storage.OpenLocal(cfg.Storage.LocalDir)
		if err != nil {
			log.Error("failed to open local store", "error", err)
			os.Exit(1)
		}
		defer local.Close()
		store = local
		log.Info("local store opened", "dir", cfg.Storage.LocalDir)
	}

	// Program aggregator loads history and durable progress from the store.
	agg, err := program.New(ctx, store, log)
	if err != nil {
		log.Error("failed to load program", "error", err)
		os.Exit(1)
	}

	// MCP over stdio: no HTTP server, no camera.
	if *mcpStdio {
		if err := mcpserver.ServeStdio(mcp.New(agg, Version, log)); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Session controller with haptic events logged for the UI layer to relay.
	ctrl := session.New(agg, log, session.WithHaptics(session.LogHaptics{Log: log}))

	// Landmark source
	var src stream.Source
	if cfg.Stream.Mock {
		src = stream.NewMockSource()
		if err := src.Initialize(cfg.Stream.TargetFPS, cfg.Stream.MinConfidence); err != nil {
			log.Error("stream init failed", "error", err)
			os.Exit(1)
		}
		if err := src.Subscribe(ctrl.HandleFrame); err != nil {
			log.Error("stream subscribe failed", "error", err)
			os.Exit(1)
		}
		defer src.Stop()
		log.Info("mock landmark source running", "fps", cfg.Stream.TargetFPS)
	}

	// Create server
	srv := server.New(ctrl, agg, src, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	ctrl.Cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/invite"
	"github.com/vovakirdan/pong-arena/internal/registry"
	"github.com/vovakirdan/pong-arena/internal/server"
	"github.com/vovakirdan/pong-arena/internal/session"
	"github.com/vovakirdan/pong-arena/internal/storage"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the websocket match server",
	Long: `Start the match server and listen for websocket connections.

Each game mode has its own endpoint:
  /ws/local               - Two players on one connection
  /ws/ai                  - Against the computer (difficulty is picked in the newGame message)
  /ws/remote              - Open matchmaking
  /ws/friend?invite=...   - Invite-gated match
  /ws/tournament          - Single-host bracket
  /ws/remote-tournament   - Networked bracket

Players identify themselves with ?user, ?name and ?avatar query parameters.
Finished matches are recorded in the results database.

Examples:
  arena serve
  arena serve --addr :8090
  arena serve --config ./configs/arena.yaml --db ./results.db`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagDBPath != "" {
		cfg.Server.DBPath = flagDBPath
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "arena",
	})

	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		logger.Warn("could not open results database", "error", err)
		// Continue without persistence
	}

	var invites invite.Service
	if cfg.Server.InviteURL != "" {
		invites = invite.NewHTTPService(cfg.Server.InviteURL)
	} else {
		logger.Warn("no invite service configured, friend matches will be rejected")
		invites = invite.NewStatic()
	}

	deps := session.Deps{
		Config:   cfg,
		Registry: registry.New(logger),
		Invites:  invites,
		Logger:   logger,
	}
	if store != nil {
		deps.Reporter = store
	}

	srv := server.New(cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig)
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if store != nil {
		store.Close()
	}
}

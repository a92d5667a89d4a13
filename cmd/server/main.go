package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/brianmcglynncode/FlyCabs/internal/chat"
	"github.com/brianmcglynncode/FlyCabs/internal/config"
	"github.com/brianmcglynncode/FlyCabs/internal/dispatch"
	httpapi "github.com/brianmcglynncode/FlyCabs/internal/http"
	"github.com/brianmcglynncode/FlyCabs/internal/journal"
	"github.com/brianmcglynncode/FlyCabs/internal/logging"
	"github.com/brianmcglynncode/FlyCabs/internal/models"
	"github.com/brianmcglynncode/FlyCabs/internal/roster"
	"github.com/brianmcglynncode/FlyCabs/internal/trips"
)

func main() {
	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	var drivers roster.Roster
	if cfg.RedisAddr != "" {
		drivers = roster.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisRosterKey)
		logger.Info("using redis roster", "addr", cfg.RedisAddr)
	} else {
		drivers = roster.NewMemory()
	}
	if cfg.SeedBots {
		seedBots(drivers)
	}

	push := dispatch.NewPushDispatcher(logger)
	ws := dispatch.NewWSRegistry(logger)

	store := trips.New(cfg.RetentionWindow)
	store.Notifier = dispatch.Fanout{push, ws}
	if len(cfg.KafkaBrokers) > 0 {
		producer := journal.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		store.Journal = producer
		logger.Info("journal producer enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	api := httpapi.NewServer(httpapi.Options{
		Logger:       logger,
		Roster:       drivers,
		Trips:        store,
		Chat:         chat.New(cfg.ChatHistoryLimit),
		Push:         push,
		WS:           ws,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("flycabs listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("flycabs stopped")
}

// seedBots pre-populates the roster so a fresh install isn't an empty
// screen, matching the demo's reference behaviour.
func seedBots(r roster.Roster) {
	_ = r.UpsertStatus(models.Driver{ID: "bot-1", Name: "Peadar (Bot)", Car: "Tesla Model 3", Active: true})
	_ = r.UpsertStatus(models.Driver{ID: "bot-2", Name: "Niamh (Bot)", Car: "VW ID.4", Active: true})
}

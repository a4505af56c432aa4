package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bowerhall/albumbot/internal/archive"
	"github.com/bowerhall/albumbot/internal/bot"
	"github.com/bowerhall/albumbot/internal/config"
	"github.com/bowerhall/albumbot/internal/flow"
	"github.com/bowerhall/albumbot/internal/logger"
	"github.com/bowerhall/albumbot/internal/messages"
	"github.com/bowerhall/albumbot/internal/registry"
	"github.com/bowerhall/albumbot/internal/session"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	msgs, err := messages.Load(cfg.MessagesFile)
	if err != nil {
		logger.Fatal("failed to load messages", "error", err)
	}

	users, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		logger.Fatal("failed to open registry", "error", err, "path", cfg.RegistryPath)
	}

	defer users.Close()

	tg, err := bot.NewTelegram(cfg.Token)
	if err != nil {
		logger.Fatal("failed to create telegram bot", "error", err)
	}

	machine := flow.New(session.NewStore(), users, tg, msgs, cfg.AdminChatID, cfg.SettleWindow)
	tg.SetMachine(machine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Storage.Enabled {
		archiver, err := archive.NewClient(archive.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
		}, tg)
		if err != nil {
			logger.Error("archive disabled", "error", err)
		} else if err := archiver.Init(ctx); err != nil {
			logger.Error("archive disabled", "error", err)
		} else {
			machine.SetArchiver(archiver)
			logger.Info("album archive enabled", "endpoint", cfg.Storage.Endpoint)
		}
	}

	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.SweepSchedule, func() {
		if n := machine.Sessions().ExpireIdle(cfg.SessionTTL); n > 0 {
			logger.Info("idle sessions expired", "count", n)
		}
	})
	if err != nil {
		logger.Fatal("invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
	}

	sweeper.Start()
	defer sweeper.Stop()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig)
		cancel()
	}()

	logger.Info("albumbot starting", "admin", cfg.AdminChatID, "settleWindow", cfg.SettleWindow)

	if err := tg.Start(ctx); err != nil && err != context.Canceled {
		logger.Fatal("bot stopped", "error", err)
	}
}

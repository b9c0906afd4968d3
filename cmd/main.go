package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"refbot/internal/bootstrap"
	"refbot/internal/bot"
	"refbot/internal/config"
	cronpkg "refbot/internal/cron"
	"refbot/internal/ledger"
	"refbot/internal/payout"
	"refbot/internal/pkg/telegram"
	"refbot/internal/repository"
	"refbot/internal/router"
	"refbot/internal/session"
	"refbot/internal/subscription"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// --- Session store (Redis with in-memory fallback) ---
	sessions, sessErr := session.New(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		cfg.Payout.SessionTTL,
	)
	if sessErr != nil {
		logger.Warn("Redis unavailable for sessions, using in-memory fallback", zap.Error(sessErr))
	}

	// --- Telegram Bot API (direct HTTP clients) ---
	userAPI := telegram.NewBotAPI(cfg.Bot.Token)
	adminAPI := telegram.NewBotAPI(cfg.Bot.AdminToken)

	// --- Core components ---
	ledg := ledger.New(userRepo, statsRepo, logger)
	workflow := payout.New(userRepo, paymentRepo, sessions, logger)
	gate := subscription.NewGate(cfg.Payout.Channels, userAPI, logger)

	// --- Bots ---
	userBot, err := bot.New(cfg, &bot.Deps{
		Ledger:   ledg,
		Workflow: workflow,
		Gate:     gate,
		Stats:    statsRepo,
		Users:    userRepo,
		AdminAPI: adminAPI,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create user bot", zap.Error(err))
	}

	adminBot, err := bot.NewAdmin(cfg, &bot.AdminDeps{
		Ledger:   ledg,
		Workflow: workflow,
		Stats:    statsRepo,
		Users:    userRepo,
		UserAPI:  userAPI,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create admin bot", zap.Error(err))
	}

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(statsRepo, logger)
	scheduler.Start()

	// --- Ops HTTP server ---
	e := echo.New()
	e.HideBanner = true
	router.Setup(e, db, logger, cfg.API.Key)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting ops server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Start bots (long polling) ---
	go userBot.Start()
	go adminBot.Start()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	userBot.Stop()
	adminBot.Stop()

	ctx := scheduler.Stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Bot exited")
}

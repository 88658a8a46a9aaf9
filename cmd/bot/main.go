package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mzotov/famwallet/internal/bot"
	"github.com/mzotov/famwallet/internal/config"
	"github.com/mzotov/famwallet/internal/reminder"
	"github.com/mzotov/famwallet/internal/service"
	"github.com/mzotov/famwallet/internal/storage/sqlite"
	"github.com/mzotov/famwallet/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	wallets := service.NewWalletService(store)
	links := service.NewLinkService(store, cfg.LinkTTL)

	b, err := bot.New(cfg.BotToken, wallets, links)
	if err != nil {
		slog.Error("Failed to start bot", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Error("Failed to load timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}
	reminders := reminder.New(store, b, loc)
	if err := reminders.Schedule(cfg.IncomeReminderAt, cfg.ExpenseReminderAt); err != nil {
		slog.Error("Failed to schedule reminders", "error", err)
		os.Exit(1)
	}
	reminders.Start()
	slog.Info("Reminders scheduled",
		"income_at", cfg.IncomeReminderAt,
		"expense_at", cfg.ExpenseReminderAt,
		"timezone", cfg.Timezone,
	)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		go func() {
			slog.Info("Metrics server starting", "address", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	go b.Start()
	slog.Info("Bot started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("Shutting down")
	b.Stop()
	reminders.Stop()
}

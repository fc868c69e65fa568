package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledger/internal/amqp"
	"ledger/internal/config"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
	"ledger/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("starting ledger-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", applog.FieldError, err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	expenseStore, err := storage.NewRecordStore(db, core.KindExpense)
	if err != nil {
		logger.Error("failed to build expense store", applog.FieldError, err)
		os.Exit(1)
	}
	incomeStore, err := storage.NewRecordStore(db, core.KindIncome)
	if err != nil {
		logger.Error("failed to build income store", applog.FieldError, err)
		os.Exit(1)
	}

	exporter := worker.NewExportWorker(storage.NewUserStore(db), expenseStore, incomeStore, cfg.ExportDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event-driven refreshes ride on the broker; the periodic jobs below are
	// the backup path when events are lost or the broker is down.
	if cfg.AMQPURL != "" {
		go func() {
			err := amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, func(event *amqp.RecordEvent) error {
				return exporter.HandleRecordEvent(ctx, event)
			})
			if err != nil && err != context.Canceled {
				logger.Error("event consumption failed", applog.FieldError, err)
				cancel()
			}
		}()
	} else {
		logger.Info("event consumption disabled, no broker URL configured")
	}

	scheduler := worker.NewScheduler(
		worker.Job{
			Name:     "autosave-snapshots",
			Interval: cfg.AutosaveInterval,
			Run:      exporter.ExportSnapshots,
		},
		worker.Job{
			Name:     "generate-reports",
			Interval: cfg.ReportInterval,
			Run:      exporter.GenerateReports,
		},
	)

	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	finished := false
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-done:
		finished = true
		if err != nil && err != context.Canceled {
			logger.Error("scheduler stopped", applog.FieldError, err)
		}
	}

	cancel()

	if !finished {
		select {
		case <-done:
		case <-time.After(cfg.ShutdownGrace):
			logger.Warn("shutdown grace period elapsed, exiting")
			return
		}
	}
	logger.Info("worker shutdown complete")
}

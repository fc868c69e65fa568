package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/amqp"
	"ledger/internal/config"
	"ledger/internal/core"
	ledgerhttp "ledger/internal/http"
	"ledger/internal/insight"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

func main() {
	// .env is for local development; absence is not an error.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("starting ledgerd")

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

	// Event publishing is optional. Without a broker the API still works;
	// exports then only refresh on the periodic schedule.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to connect to broker, continuing without events", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("broker connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("event publishing disabled, no broker URL configured")
	}

	users := services.NewUserService(storage.NewUserStore(db))
	expenses := services.NewLedgerService(expenseStore, events)
	incomes := services.NewLedgerService(incomeStore, events)

	insightClient := insight.NewClient(cfg.InsightHost, cfg.InsightPort, cfg.InsightTimeout)

	server := ledgerhttp.NewServer(cfg.HTTPAddr, users, expenses, incomes, insightClient, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", applog.FieldError, err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown did not finish cleanly", applog.FieldError, err)
	} else {
		logger.Info("shutdown complete")
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/config"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/dialogue"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/events"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/ledger"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/storage/drivers"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/transport/httpapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		printErrorAndExit("loading config", err)
	}
	if err := cfg.Validate(); err != nil {
		printErrorAndExit("validating config", err)
	}
	level, _ := cfg.LogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := drivers.Open(ctx, cfg.Storage)
	if err != nil {
		printErrorAndExit("opening storage", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}()

	var sink interfaces.EventPublisher = events.NewLogPublisher(nil)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
		defer publisher.Close()
		sink = publisher
		slog.Info("publishing events to kafka", "brokers", cfg.Kafka.Brokers, "topic_prefix", cfg.Kafka.TopicPrefix)
	}
	worker := events.NewWorker(sink, cfg.Events.BufferSize)
	worker.Start()
	defer worker.Shutdown()

	ledgerService := ledger.NewLedger(store, ledger.WithPublisher(worker))
	outbox := httpapi.NewOutbox()
	engine := dialogue.NewEngine(ledgerService, outbox, dialogue.WithCurrency(cfg.UI.Currency))

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewServer(engine, ledgerService, outbox, cfg.UI.Currency).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.HTTP.Addr, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
}

func printErrorAndExit(what string, err error) {
	slog.Error("startup failed", "step", what, "error", err)
	os.Exit(1)
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/report"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

// app is the wiring shared by every command.
type app struct {
	store    *sqlite.SQLiteStore
	registry *prometheus.Registry
	ledger   *ledger.Ledger
	reporter *report.Reporter
}

func newApp(cfg *config.Config) (*app, error) {
	logging.SetupWith(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store, err := sqlite.New(cfg.DBPath,
		sqlite.WithMaxRetries(cfg.TxMaxRetries),
		sqlite.WithBusyTimeout(cfg.BusyTimeout),
		sqlite.WithRetryHook(func(int, error) { m.TxRetries.Inc() }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("Storage initialized", "database", cfg.DBPath)

	l := ledger.New(store, m)
	return &app{
		store:    store,
		registry: registry,
		ledger:   l,
		reporter: report.New(l),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Error("Failed to close storage", "error", err)
	}
}

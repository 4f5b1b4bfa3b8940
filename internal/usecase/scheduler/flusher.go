// Package scheduler runs periodic persistence of the registry and router
// statistics, so the SQLite store stays close to the in-memory state
// without putting a write on the routing hot path.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"ghst-moe/internal/adapter/store"
	"ghst-moe/internal/usecase"
)

// flushTimeout bounds one persistence pass.
const flushTimeout = 10 * time.Second

// Flusher periodically writes registry and statistics snapshots to the
// store on a cron schedule.
type Flusher struct {
	registry *usecase.Registry
	router   *usecase.Router
	store    *store.SQLiteStore
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewFlusher creates a flusher. Call Start with a cron spec to begin.
func NewFlusher(registry *usecase.Registry, router *usecase.Router, st *store.SQLiteStore, logger *slog.Logger) *Flusher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flusher{
		registry: registry,
		router:   router,
		store:    st,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start schedules flushes per spec (e.g. "@every 5m") and starts the cron
// loop. Returns an error for an invalid spec.
func (f *Flusher) Start(spec string) error {
	if _, err := f.cron.AddFunc(spec, f.flush); err != nil {
		return err
	}
	f.cron.Start()
	f.logger.Info("statistics flusher started", "schedule", spec)
	return nil
}

// Stop halts the cron loop, waits for a running flush, then performs one
// final flush.
func (f *Flusher) Stop() {
	<-f.cron.Stop().Done()
	f.flush()
	f.logger.Info("statistics flusher stopped")
}

// Flush persists one snapshot immediately.
func (f *Flusher) Flush() { f.flush() }

func (f *Flusher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := f.store.SaveRegistry(ctx, f.registry.Export()); err != nil {
		f.logger.Error("registry flush failed", "error", err)
	}
	if err := f.store.SaveStatistics(ctx, f.router.Statistics()); err != nil {
		f.logger.Error("statistics flush failed", "error", err)
	}
}

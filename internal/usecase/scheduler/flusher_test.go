package scheduler

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"ghst-moe/internal/adapter/store"
	"ghst-moe/internal/domain"
	"ghst-moe/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFlusherFixture(t *testing.T) (*Flusher, *store.SQLiteStore, *usecase.Registry, *usecase.Router) {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "moe.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	registry := usecase.NewRegistry(testLogger())
	if err := registry.Register(domain.ExpertMetadata{
		ExpertID: "a",
		Name:     "A",
		Domain:   domain.DomainCore,
		Keywords: []string{"topic"},
		Enabled:  true,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	router := usecase.NewRouter(registry, usecase.NewScorer(usecase.DefaultScoringWeights()), testLogger())

	return NewFlusher(registry, router, st, testLogger()), st, registry, router
}

func TestFlushPersistsRegistryAndStatistics(t *testing.T) {
	f, st, _, router := newFlusherFixture(t)

	router.Route(context.Background(), "topic", nil, usecase.RouteOptions{})
	router.Route(context.Background(), "topic again", nil, usecase.RouteOptions{})
	f.Flush()

	records, err := st.LoadRegistry(context.Background())
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(records) != 1 || records[0].ExpertID != "a" {
		t.Errorf("records = %+v", records)
	}

	stats, err := st.LoadStatistics(context.Background())
	if err != nil {
		t.Fatalf("LoadStatistics: %v", err)
	}
	if stats.TotalQueries != 2 {
		t.Errorf("TotalQueries = %d, want 2", stats.TotalQueries)
	}
	if stats.PerExpertUsage["a"] != 2 {
		t.Errorf("usage = %v", stats.PerExpertUsage)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	f, _, _, _ := newFlusherFixture(t)
	if err := f.Start("definitely not cron"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestStopPerformsFinalFlush(t *testing.T) {
	f, st, _, router := newFlusherFixture(t)

	// Long interval: the only flush should be the one on Stop.
	if err := f.Start("@every 24h"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	router.Route(context.Background(), "topic", nil, usecase.RouteOptions{})
	f.Stop()

	stats, err := st.LoadStatistics(context.Background())
	if err != nil {
		t.Fatalf("LoadStatistics: %v", err)
	}
	if stats.TotalQueries != 1 {
		t.Errorf("TotalQueries = %d, want 1 after final flush", stats.TotalQueries)
	}
}

// Package store persists registry snapshots and router statistics in
// SQLite, so usage counters survive process restarts and an operator can
// inspect them out of band.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"ghst-moe/internal/domain"
)

// SQLiteStore implements snapshot and statistics persistence on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs
// the schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open moe db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate moe db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS experts (
			expert_id      TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			domain         TEXT NOT NULL,
			expertise      TEXT NOT NULL DEFAULT '',
			specialization TEXT NOT NULL DEFAULT '',
			keywords       TEXT NOT NULL DEFAULT '[]',
			enabled        INTEGER NOT NULL DEFAULT 1,
			version        TEXT NOT NULL DEFAULT '',
			description    TEXT NOT NULL DEFAULT '',
			fragments_path TEXT NOT NULL DEFAULT '',
			model_path     TEXT NOT NULL DEFAULT '',
			position       INTEGER NOT NULL,
			updated_at     TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS expert_usage (
			expert_id  TEXT PRIMARY KEY,
			count      INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS router_counters (
			key        TEXT PRIMARY KEY,
			value      INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRegistry replaces the persisted registry snapshot with records,
// preserving their order.
func (s *SQLiteStore) SaveRegistry(ctx context.Context, records []domain.ExpertMetadata) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapOp("SQLiteStore.SaveRegistry", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM experts"); err != nil {
		return domain.WrapOp("SQLiteStore.SaveRegistry", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i, m := range records {
		kw, err := json.Marshal(m.Keywords)
		if err != nil {
			return domain.WrapOp("SQLiteStore.SaveRegistry", err)
		}
		_, err = tx.Exec(`
			INSERT INTO experts
				(expert_id, name, domain, expertise, specialization, keywords,
				 enabled, version, description, fragments_path, model_path, position, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ExpertID, m.Name, string(m.Domain), m.Expertise, m.Specialization, string(kw),
			boolToInt(m.Enabled), m.Version, m.Description, m.FragmentsPath, m.ModelPath, i, now,
		)
		if err != nil {
			return domain.WrapOp("SQLiteStore.SaveRegistry", err)
		}
	}
	return tx.Commit()
}

// LoadRegistry returns the persisted snapshot in its saved order.
func (s *SQLiteStore) LoadRegistry(ctx context.Context) ([]domain.ExpertMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT expert_id, name, domain, expertise, specialization, keywords,
		       enabled, version, description, fragments_path, model_path
		FROM experts ORDER BY position`)
	if err != nil {
		return nil, domain.WrapOp("SQLiteStore.LoadRegistry", err)
	}
	defer rows.Close()

	var out []domain.ExpertMetadata
	for rows.Next() {
		var m domain.ExpertMetadata
		var kw string
		var enabled int
		var dom string
		if err := rows.Scan(&m.ExpertID, &m.Name, &dom, &m.Expertise, &m.Specialization, &kw,
			&enabled, &m.Version, &m.Description, &m.FragmentsPath, &m.ModelPath); err != nil {
			return nil, domain.WrapOp("SQLiteStore.LoadRegistry", err)
		}
		m.Domain = domain.ExpertDomain(dom)
		m.Enabled = enabled != 0
		if err := json.Unmarshal([]byte(kw), &m.Keywords); err != nil {
			return nil, domain.WrapOp("SQLiteStore.LoadRegistry", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveStatistics upserts the router counters.
func (s *SQLiteStore) SaveStatistics(ctx context.Context, stats domain.RouterStatistics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapOp("SQLiteStore.SaveStatistics", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.Exec(`
		INSERT INTO router_counters (key, value, updated_at) VALUES ('total_queries', ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		stats.TotalQueries, now)
	if err != nil {
		return domain.WrapOp("SQLiteStore.SaveStatistics", err)
	}

	for id, count := range stats.PerExpertUsage {
		_, err = tx.Exec(`
			INSERT INTO expert_usage (expert_id, count, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(expert_id) DO UPDATE SET count = excluded.count, updated_at = excluded.updated_at`,
			id, count, now)
		if err != nil {
			return domain.WrapOp("SQLiteStore.SaveStatistics", err)
		}
	}
	return tx.Commit()
}

// LoadStatistics returns the persisted counters. Missing tables or rows
// yield zero counters, not an error.
func (s *SQLiteStore) LoadStatistics(ctx context.Context) (domain.RouterStatistics, error) {
	stats := domain.RouterStatistics{PerExpertUsage: make(map[string]int)}

	row := s.db.QueryRowContext(ctx, "SELECT value FROM router_counters WHERE key = 'total_queries'")
	if err := row.Scan(&stats.TotalQueries); err != nil && err != sql.ErrNoRows {
		return stats, domain.WrapOp("SQLiteStore.LoadStatistics", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT expert_id, count FROM expert_usage")
	if err != nil {
		return stats, domain.WrapOp("SQLiteStore.LoadStatistics", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return stats, domain.WrapOp("SQLiteStore.LoadStatistics", err)
		}
		stats.PerExpertUsage[id] = count
	}
	return stats, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

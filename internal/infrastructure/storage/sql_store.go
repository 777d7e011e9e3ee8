// Package storage persists fingerprints and ranking runs in a SQL database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ContentRanker/internal/dedup"
	"ContentRanker/internal/domain"
	"ContentRanker/internal/ports"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	fingerprintsTable = "content_fingerprints"
	runsTable         = "ranking_runs"
	itemsTable        = "ranked_items"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS content_fingerprints (
		fingerprint TEXT PRIMARY KEY,
		first_seen_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ranking_runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		message TEXT NOT NULL,
		stats TEXT NOT NULL,
		processed_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ranked_items (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		source TEXT NOT NULL,
		title TEXT NOT NULL,
		quality_score DOUBLE PRECISION,
		payload TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
}

var nowUnix = func() int64 { return time.Now().Unix() }

// SQLStore implements fingerprint and run persistence over database/sql.
type SQLStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var (
	_ ports.FingerprintStore = (*SQLStore)(nil)
	_ ports.RunRepository    = (*SQLStore)(nil)
)

// NewSQLStore wraps an open database; driver selects the placeholder style.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &SQLStore{db: db, sb: sq.StatementBuilder.PlaceholderFormat(format)}
}

// Open connects with the named driver and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	case "":
		driver = DriverSQLite
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// one connection keeps :memory: databases shared and serializes writes
		db.SetMaxOpenConns(1)
	}

	store := NewSQLStore(db, driver)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates missing tables.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Seen returns the subset of fingerprints already stored.
func (s *SQLStore) Seen(ctx context.Context, fingerprints []string) (map[string]bool, error) {
	result := make(map[string]bool, len(fingerprints))
	if len(fingerprints) == 0 {
		return result, nil
	}

	query, args, err := s.sb.Select("fingerprint").
		From(fingerprintsTable).
		Where(sq.Eq{"fingerprint": fingerprints}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seen query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		result[fp] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// Remember inserts fingerprints, ignoring those already present.
func (s *SQLStore) Remember(ctx context.Context, fingerprints []string) error {
	unique := slices.Compact(slices.Sorted(slices.Values(fingerprints)))
	unique = slices.DeleteFunc(unique, func(fp string) bool { return fp == "" })
	if len(unique) == 0 {
		return nil
	}

	now := nowUnix()
	insert := s.sb.Insert(fingerprintsTable).Columns("fingerprint", "first_seen_at")
	for _, fp := range unique {
		insert = insert.Values(fp, now)
	}
	query, args, err := insert.Suffix("ON CONFLICT (fingerprint) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build remember query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert fingerprints: %w", err)
	}
	return nil
}

// SaveRun stores the run header and its ranked items in one transaction.
func (s *SQLStore) SaveRun(ctx context.Context, run domain.RunRecord) error {
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := s.sb.Insert(runsTable).
		Columns("id", "status", "message", "stats", "processed_at").
		Values(run.ID, string(run.Status), run.Message, string(stats), run.ProcessedAt.Unix()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(run.Items) > 0 {
		insert := s.sb.Insert(itemsTable).
			Columns("run_id", "position", "fingerprint", "source", "title", "quality_score", "payload")
		for i, item := range run.Items {
			payload, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("encode item %d: %w", i, err)
			}
			insert = insert.Values(run.ID, i, dedup.Fingerprint(item), item.SourceOrUnknown(), item.Title, item.QualityScore, string(payload))
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build items insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RunItems loads the ranked items of a stored run in rank order.
func (s *SQLStore) RunItems(ctx context.Context, runID string) ([]domain.ContentItem, error) {
	query, args, err := s.sb.Select("payload").
		From(itemsTable).
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		var item domain.ContentItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}

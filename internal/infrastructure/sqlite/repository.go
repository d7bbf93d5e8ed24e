package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"aavetx/internal/application"
	"aavetx/internal/domain"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Repository keeps an audit trail of lookups in a local SQLite file.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY between request goroutines
	db.SetMaxOpenConns(1)
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS lookups (
			id TEXT PRIMARY KEY,
			tx_hash TEXT NOT NULL,
			found INTEGER NOT NULL,
			chain TEXT NOT NULL DEFAULT '',
			row_count INTEGER NOT NULL,
			probe_count INTEGER NOT NULL,
			failed_chains INTEGER NOT NULL,
			requested_at INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS lookups_hash_idx ON lookups (tx_hash)`,
		`CREATE INDEX IF NOT EXISTS lookups_requested_idx ON lookups (requested_at)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Name() string {
	return "sqlite"
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) RecordLookup(ctx context.Context, record domain.LookupRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	found := 0
	if record.Found {
		found = 1
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO lookups
		(id, tx_hash, found, chain, row_count, probe_count, failed_chains, requested_at, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		record.ID.String(),
		record.Hash,
		found,
		string(record.Chain),
		record.RowCount,
		record.ProbeCount,
		record.FailedChains,
		record.RequestedAt.UTC().UnixMilli(),
		record.Elapsed.Milliseconds(),
	)
	return err
}

func (r *Repository) QueryLookups(ctx context.Context, filter application.LookupQueryFilter) ([]domain.LookupRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	clauses := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if filter.Hash != "" {
		clauses = append(clauses, "tx_hash = ?")
		args = append(args, filter.Hash)
	}
	if filter.Chain != "" {
		clauses = append(clauses, "chain = ?")
		args = append(args, string(filter.Chain))
	}
	if filter.FoundOnly {
		clauses = append(clauses, "found = 1")
	}

	query := `SELECT id, tx_hash, found, chain, row_count, probe_count, failed_chains, requested_at, elapsed_ms FROM lookups`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY requested_at DESC, rowid DESC LIMIT ?"
	args = append(args, application.NormalizeLookupLimit(filter.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.LookupRecord
	for rows.Next() {
		var (
			record      domain.LookupRecord
			id          string
			chain       string
			found       int
			requestedMS int64
			elapsedMS   int64
		)
		if err := rows.Scan(&id, &record.Hash, &found, &chain, &record.RowCount, &record.ProbeCount, &record.FailedChains, &requestedMS, &elapsedMS); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("lookup id %q: %w", id, err)
		}
		record.ID = parsed
		record.Found = found != 0
		record.Chain = domain.Chain(chain)
		record.RequestedAt = time.UnixMilli(requestedMS).UTC()
		record.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repository) RecentLookups(ctx context.Context, limit int) ([]domain.LookupRecord, error) {
	return r.QueryLookups(ctx, application.LookupQueryFilter{Limit: limit})
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

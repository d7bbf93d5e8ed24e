package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"aavetx/internal/application"
	"aavetx/internal/domain"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Repository keeps an audit trail of lookups in MySQL.
type Repository struct {
	db *sql.DB
}

func NewRepository(dsn string) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("db dsn is required")
	}
	// requested_at is scanned into time.Time
	parsed, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	parsed.ParseTime = true
	db, err := sql.Open("mysql", parsed.FormatDSN())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS lookups (
			id CHAR(36) NOT NULL,
			tx_hash VARCHAR(130) NOT NULL,
			found TINYINT(1) NOT NULL,
			chain VARCHAR(32) NOT NULL DEFAULT '',
			row_count INT UNSIGNED NOT NULL,
			probe_count INT UNSIGNED NOT NULL,
			failed_chains INT UNSIGNED NOT NULL,
			requested_at DATETIME(3) NOT NULL,
			elapsed_ms BIGINT UNSIGNED NOT NULL,
			PRIMARY KEY (id),
			KEY lookups_hash_idx (tx_hash),
			KEY lookups_requested_idx (requested_at)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Name() string {
	return "mysql"
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) RecordLookup(ctx context.Context, record domain.LookupRecord) error {
	ctx, span := startDBSpan(ctx, "mysql.RecordLookup", attribute.String("tx.hash", record.Hash))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	found := 0
	if record.Found {
		found = 1
	}
	_, err := r.db.ExecContext(ctx, `INSERT IGNORE INTO lookups
		(id, tx_hash, found, chain, row_count, probe_count, failed_chains, requested_at, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID.String(),
		record.Hash,
		found,
		string(record.Chain),
		record.RowCount,
		record.ProbeCount,
		record.FailedChains,
		record.RequestedAt.UTC(),
		record.Elapsed.Milliseconds(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *Repository) QueryLookups(ctx context.Context, filter application.LookupQueryFilter) ([]domain.LookupRecord, error) {
	ctx, span := startDBSpan(ctx, "mysql.QueryLookups")
	defer span.End()
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
	query += " ORDER BY requested_at DESC LIMIT ?"
	args = append(args, application.NormalizeLookupLimit(filter.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []domain.LookupRecord
	for rows.Next() {
		var (
			record    domain.LookupRecord
			id        string
			chain     string
			found     int
			requested time.Time
			elapsedMS int64
		)
		if err := rows.Scan(&id, &record.Hash, &found, &chain, &record.RowCount, &record.ProbeCount, &record.FailedChains, &requested, &elapsedMS); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("lookup id %q: %w", id, err)
		}
		record.ID = parsed
		record.Found = found != 0
		record.Chain = domain.Chain(chain)
		record.RequestedAt = requested.UTC()
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

func startDBSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.system", "mysql"))
	return otel.Tracer("aavetx/mysql").Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/lead-enricher/internal/enrich"
	"github.com/JakeFAU/lead-enricher/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "enrichments"

// ResultStoreConfig controls the Postgres connection pool used for enrichment rows.
type ResultStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// ResultStore writes enrichment records into Postgres.
type ResultStore struct {
	pool  pool
	table string
}

// NewResultStore creates a Postgres-backed ResultStore using the provided config.
func NewResultStore(ctx context.Context, cfg ResultStoreConfig) (*ResultStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ResultStore{pool: p, table: table}, nil
}

// NewResultStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewResultStoreWithPool(p pool, table string) (*ResultStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ResultStore{pool: p, table: table}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *ResultStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *ResultStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("result store is not configured")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureSchema creates the enrichment table when it does not exist.
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	request_domain TEXT NOT NULL DEFAULT '',
	request_name TEXT NOT NULL DEFAULT '',
	domain TEXT NOT NULL,
	resolved_by TEXT NOT NULL DEFAULT '',
	result JSONB NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s table: %w", s.table, err)
	}
	return nil
}

// Save inserts an enrichment row.
func (s *ResultStore) Save(ctx context.Context, rec store.Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("result store is not configured")
	}
	if rec.ID == uuid.Nil {
		return fmt.Errorf("record id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	request_domain,
	request_name,
	domain,
	resolved_by,
	result,
	duration_ms,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`, s.table)

	args := []any{
		rec.ID,
		rec.Request.Domain,
		rec.Request.Name,
		rec.Result.Domain,
		string(rec.Result.ResolvedBy),
		resultJSON,
		rec.Duration.Milliseconds(),
		rec.CreatedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert enrichment: %w", err)
	}
	return nil
}

// Get retrieves a single enrichment row by ID.
func (s *ResultStore) Get(ctx context.Context, id uuid.UUID) (store.Record, error) {
	if s == nil || s.pool == nil {
		return store.Record{}, fmt.Errorf("result store is not configured")
	}
	query := fmt.Sprintf(`
SELECT request_domain, request_name, result, duration_ms, created_at
FROM %s
WHERE id = $1`, s.table)

	rec := store.Record{ID: id}
	var (
		resultJSON []byte
		durationMs int64
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.Request.Domain,
		&rec.Request.Name,
		&resultJSON,
		&durationMs,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Record{}, store.ErrNotFound
		}
		return store.Record{}, fmt.Errorf("get enrichment: %w", err)
	}
	var result enrich.Result
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return store.Record{}, fmt.Errorf("decode enrichment result: %w", err)
	}
	rec.Result = result
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	return rec, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"topicast/internal/content"
)

const uniqueViolation = "23505"

// Columns added after the first release. They are widened in place and
// stay NULL on older rows.
var optionalColumns = []struct {
	name    string
	sqlType string
}{
	{"word_count", "INTEGER"},
	{"coverage", "TEXT"},
	{"duration_class", "TEXT"},
	{"audio_bytes", "INTEGER"},
}

const createTable = `
CREATE TABLE IF NOT EXISTS episodes (
	id         UUID PRIMARY KEY,
	topic      TEXT NOT NULL,
	slug       TEXT NOT NULL UNIQUE,
	url        TEXT NOT NULL,
	script     TEXT NOT NULL,
	audio_ref  TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createIndex = `CREATE INDEX IF NOT EXISTS episodes_created_at_idx ON episodes (created_at DESC)`

const selectColumns = `id, topic, slug, url, script, COALESCE(audio_ref, ''), created_at,
	COALESCE(word_count, 0), COALESCE(coverage, ''), COALESCE(duration_class, ''), COALESCE(audio_bytes, 0)`

type Config struct {
	DSN          string
	MaxOpenConns int
	ConnMaxLife  time.Duration
}

type Store struct {
	db *sql.DB
}

// Open connects to Postgres and brings the schema up to date.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLife)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the table and adds any missing optional column. It only
// ever widens the schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	for _, col := range optionalColumns {
		stmt := fmt.Sprintf("ALTER TABLE episodes ADD COLUMN IF NOT EXISTS %s %s", col.name, col.sqlType)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM episodes WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (s *Store) Insert(ctx context.Context, r *content.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes (id, topic, slug, url, script, audio_ref, created_at,
			word_count, coverage, duration_class, audio_bytes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7,
			NULLIF($8, 0), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, 0))`,
		r.ID, r.Topic, r.Slug, r.URL, r.Script, r.AudioRef, r.CreatedAt,
		r.WordCount, r.Coverage, r.DurationClass, r.AudioBytes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("%w: %v", content.ErrDuplicateSlug, err)
		}
		return &content.StorageFailure{Op: "insert", Slug: r.Slug, Err: err}
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]content.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM episodes ORDER BY created_at DESC, id DESC LIMIT $1`,
		content.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []content.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	return records, nil
}

func (s *Store) Lookup(ctx context.Context, slug string) (*content.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM episodes WHERE slug = $1`, slug)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*content.Record, error) {
	var r content.Record
	err := row.Scan(&r.ID, &r.Topic, &r.Slug, &r.URL, &r.Script, &r.AudioRef, &r.CreatedAt,
		&r.WordCount, &r.Coverage, &r.DurationClass, &r.AudioBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan episode: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

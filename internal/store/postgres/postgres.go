// Package postgres mirrors the corpus into a PostgreSQL database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS surahs (
		number          INTEGER PRIMARY KEY,
		name_arabic     TEXT NOT NULL,
		name_english    TEXT NOT NULL,
		revelation_type TEXT NOT NULL,
		verses_count    INTEGER NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS verses (
		id           BIGSERIAL PRIMARY KEY,
		surah_number INTEGER NOT NULL REFERENCES surahs (number),
		verse_number INTEGER NOT NULL,
		text_simple  TEXT NOT NULL,
		text_uthmani TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (surah_number, verse_number)
	)`,
	`CREATE TABLE IF NOT EXISTS metadata (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_verses_surah ON verses (surah_number)`,
	`CREATE INDEX IF NOT EXISTS idx_verses_number ON verses (verse_number)`,
}

// DB wraps the PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to the database and ensures the schema.
func New(ctx context.Context, connString string) (*DB, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Close closes all connections in the pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Target describes the connected database without credentials.
func (db *DB) Target() string {
	cc := db.pool.Config().ConnConfig
	return fmt.Sprintf("postgres://%s:%d/%s", cc.Host, cc.Port, cc.Database)
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// SaveCorpus upserts the corpus and its metadata in one transaction.
func (db *DB) SaveCorpus(ctx context.Context, corpus domain.Corpus, info domain.ExportInfo) error {
	return db.withTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range corpus.Surahs {
			batch.Queue(`
				INSERT INTO surahs (number, name_arabic, name_english, revelation_type, verses_count)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (number) DO UPDATE SET
					name_arabic     = EXCLUDED.name_arabic,
					name_english    = EXCLUDED.name_english,
					revelation_type = EXCLUDED.revelation_type,
					verses_count    = EXCLUDED.verses_count`,
				s.Number, s.NameArabic, s.NameEnglish, string(s.RevelationType), s.VersesCount)
		}
		for _, v := range corpus.Verses {
			batch.Queue(`
				INSERT INTO verses (surah_number, verse_number, text_simple, text_uthmani)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (surah_number, verse_number) DO UPDATE SET
					text_simple  = EXCLUDED.text_simple,
					text_uthmani = EXCLUDED.text_uthmani`,
				v.Surah, v.Number, v.TextSimple, v.TextUthmani)
		}
		for k, v := range metadataRows(corpus, info) {
			batch.Queue(`
				INSERT INTO metadata (key, value, updated_at)
				VALUES ($1, $2, now())
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
				k, v)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return mapError(err)
		}
		return nil
	})
}

// Verse retrieves one verse by key.
func (db *DB) Verse(ctx context.Context, key domain.VerseKey) (domain.Verse, error) {
	var v domain.Verse
	err := db.pool.QueryRow(ctx, `
		SELECT surah_number, verse_number, text_simple, text_uthmani
		FROM verses WHERE surah_number = $1 AND verse_number = $2`,
		key.Surah, key.Verse,
	).Scan(&v.Surah, &v.Number, &v.TextSimple, &v.TextUthmani)
	if err != nil {
		return domain.Verse{}, fmt.Errorf("verse %s: %w", key, mapError(err))
	}
	return v, nil
}

// Counts returns the number of stored surahs and verses.
func (db *DB) Counts(ctx context.Context) (surahs, verses int, err error) {
	err = db.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM surahs), (SELECT count(*) FROM verses)`,
	).Scan(&surahs, &verses)
	return surahs, verses, mapError(err)
}

func (db *DB) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func metadataRows(corpus domain.Corpus, info domain.ExportInfo) map[string]string {
	return map[string]string{
		"last_updated": info.GeneratedAt.UTC().Format(time.RFC3339),
		"total_surahs": strconv.Itoa(len(corpus.Surahs)),
		"total_verses": strconv.Itoa(len(corpus.Verses)),
		"version":      info.Version,
		"run_id":       info.RunID,
	}
}

const foreignKeyViolation = "23503"

// mapError converts PostgreSQL errors to package errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("verse references unknown surah: %w", err)
	}
	return err
}

// Sink mirrors each run into PostgreSQL.
type Sink struct {
	db *DB
}

// NewSink creates a Sink over an open database.
func NewSink(db *DB) *Sink {
	return &Sink{db: db}
}

// Name implements pipeline.Sink.
func (s *Sink) Name() string { return "postgres" }

// Write implements pipeline.Sink.
func (s *Sink) Write(ctx context.Context, corpus domain.Corpus, info domain.ExportInfo) ([]domain.Artifact, error) {
	if err := s.db.SaveCorpus(ctx, corpus, info); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return []domain.Artifact{{Name: "postgres", Path: s.db.Target()}}, nil
}

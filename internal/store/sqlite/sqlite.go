// Package sqlite persists the corpus in an embedded SQLite database and
// reads it back for verification and lookups.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Metadata keys written alongside the corpus.
const (
	MetaLastUpdated = "last_updated"
	MetaTotalSurahs = "total_surahs"
	MetaTotalVerses = "total_verses"
	MetaVersion     = "version"
	MetaRunID       = "run_id"
)

const schema = `
CREATE TABLE IF NOT EXISTS surahs (
    number          INTEGER PRIMARY KEY,
    name_arabic     TEXT NOT NULL,
    name_english    TEXT NOT NULL,
    revelation_type TEXT NOT NULL,
    verses_count    INTEGER NOT NULL,
    created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS verses (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    surah_number INTEGER NOT NULL,
    verse_number INTEGER NOT NULL,
    text_simple  TEXT NOT NULL,
    text_uthmani TEXT NOT NULL,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (surah_number) REFERENCES surahs (number),
    UNIQUE(surah_number, verse_number)
);

CREATE TABLE IF NOT EXISTS metadata (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_verses_surah ON verses(surah_number);
CREATE INDEX IF NOT EXISTS idx_verses_number ON verses(verse_number);
`

// Store is a corpus database in WAL mode.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	// SQLite has a single writer; one connection keeps the PRAGMAs in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close checkpoints the WAL into the main file and closes the database.
func (s *Store) Close() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.db.Close()
		return fmt.Errorf("sqlite: checkpoint: %w", err)
	}
	return s.db.Close()
}

// SaveCorpus upserts all surahs and verses and refreshes the metadata rows
// in a single transaction.
func (s *Store) SaveCorpus(ctx context.Context, corpus domain.Corpus, info domain.ExportInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const surahQ = `
		INSERT INTO surahs (number, name_arabic, name_english, revelation_type, verses_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			name_arabic     = excluded.name_arabic,
			name_english    = excluded.name_english,
			revelation_type = excluded.revelation_type,
			verses_count    = excluded.verses_count`

	surahStmt, err := tx.PrepareContext(ctx, surahQ)
	if err != nil {
		return fmt.Errorf("sqlite: prepare surah upsert: %w", err)
	}
	defer surahStmt.Close()

	for _, su := range corpus.Surahs {
		if _, err := surahStmt.ExecContext(ctx,
			su.Number, su.NameArabic, su.NameEnglish, string(su.RevelationType), su.VersesCount,
		); err != nil {
			return fmt.Errorf("sqlite: upsert surah %d: %w", su.Number, err)
		}
	}

	const verseQ = `
		INSERT INTO verses (surah_number, verse_number, text_simple, text_uthmani)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(surah_number, verse_number) DO UPDATE SET
			text_simple  = excluded.text_simple,
			text_uthmani = excluded.text_uthmani`

	verseStmt, err := tx.PrepareContext(ctx, verseQ)
	if err != nil {
		return fmt.Errorf("sqlite: prepare verse upsert: %w", err)
	}
	defer verseStmt.Close()

	for _, v := range corpus.Verses {
		if _, err := verseStmt.ExecContext(ctx, v.Surah, v.Number, v.TextSimple, v.TextUthmani); err != nil {
			return fmt.Errorf("sqlite: upsert verse %s: %w", v.Key(), err)
		}
	}

	meta := map[string]string{
		MetaLastUpdated: info.GeneratedAt.UTC().Format(time.RFC3339),
		MetaTotalSurahs: strconv.Itoa(len(corpus.Surahs)),
		MetaTotalVerses: strconv.Itoa(len(corpus.Verses)),
		MetaVersion:     info.Version,
		MetaRunID:       info.RunID,
	}
	const metaQ = `
		INSERT INTO metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, metaQ, k, v); err != nil {
			return fmt.Errorf("sqlite: set metadata %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit corpus: %w", err)
	}
	return nil
}

// Surahs returns every stored surah ordered by number.
func (s *Store) Surahs(ctx context.Context) ([]domain.Surah, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, name_arabic, name_english, revelation_type, verses_count
		FROM surahs ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query surahs: %w", err)
	}
	defer rows.Close()

	var surahs []domain.Surah
	for rows.Next() {
		var (
			su domain.Surah
			rt string
		)
		if err := rows.Scan(&su.Number, &su.NameArabic, &su.NameEnglish, &rt, &su.VersesCount); err != nil {
			return nil, fmt.Errorf("sqlite: scan surah: %w", err)
		}
		su.RevelationType = domain.RevelationType(rt)
		surahs = append(surahs, su)
	}
	return surahs, rows.Err()
}

// Surah returns one surah by number.
func (s *Store) Surah(ctx context.Context, number int) (domain.Surah, error) {
	var (
		su domain.Surah
		rt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT number, name_arabic, name_english, revelation_type, verses_count
		FROM surahs WHERE number = ?`, number,
	).Scan(&su.Number, &su.NameArabic, &su.NameEnglish, &rt, &su.VersesCount)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Surah{}, fmt.Errorf("surah %d: %w", number, ErrNotFound)
	}
	if err != nil {
		return domain.Surah{}, fmt.Errorf("sqlite: get surah %d: %w", number, err)
	}
	su.RevelationType = domain.RevelationType(rt)
	return su, nil
}

// Verses returns every stored verse ordered by surah and verse number.
func (s *Store) Verses(ctx context.Context) ([]domain.Verse, error) {
	return s.queryVerses(ctx, `
		SELECT surah_number, verse_number, text_simple, text_uthmani
		FROM verses ORDER BY surah_number, verse_number`)
}

// SurahVerses returns the verses of one surah in order.
func (s *Store) SurahVerses(ctx context.Context, surah int) ([]domain.Verse, error) {
	return s.queryVerses(ctx, `
		SELECT surah_number, verse_number, text_simple, text_uthmani
		FROM verses WHERE surah_number = ? ORDER BY verse_number`, surah)
}

// Verse returns the verse with the given key.
func (s *Store) Verse(ctx context.Context, key domain.VerseKey) (domain.Verse, error) {
	var v domain.Verse
	err := s.db.QueryRowContext(ctx, `
		SELECT surah_number, verse_number, text_simple, text_uthmani
		FROM verses WHERE surah_number = ? AND verse_number = ?`, key.Surah, key.Verse,
	).Scan(&v.Surah, &v.Number, &v.TextSimple, &v.TextUthmani)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Verse{}, fmt.Errorf("verse %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return domain.Verse{}, fmt.Errorf("sqlite: get verse %s: %w", key, err)
	}
	return v, nil
}

// Corpus loads the full stored corpus.
func (s *Store) Corpus(ctx context.Context) (domain.Corpus, error) {
	surahs, err := s.Surahs(ctx)
	if err != nil {
		return domain.Corpus{}, err
	}
	verses, err := s.Verses(ctx)
	if err != nil {
		return domain.Corpus{}, err
	}
	return domain.Corpus{Surahs: surahs, Verses: verses}, nil
}

// Metadata returns the metadata rows as a map.
func (s *Store) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM metadata")
	if err != nil {
		return nil, fmt.Errorf("sqlite: query metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("sqlite: scan metadata: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (s *Store) queryVerses(ctx context.Context, q string, args ...any) ([]domain.Verse, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query verses: %w", err)
	}
	defer rows.Close()

	var verses []domain.Verse
	for rows.Next() {
		var v domain.Verse
		if err := rows.Scan(&v.Surah, &v.Number, &v.TextSimple, &v.TextUthmani); err != nil {
			return nil, fmt.Errorf("sqlite: scan verse: %w", err)
		}
		verses = append(verses, v)
	}
	return verses, rows.Err()
}

package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// DefaultFile is the database file name inside the output directory.
const DefaultFile = "quran_database.sqlite"

// Sink upserts the corpus into the database at path on every run.
type Sink struct {
	path string
}

// NewSink creates a Sink for the database at path.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Name implements pipeline.Sink.
func (s *Sink) Name() string { return "sqlite" }

// Write implements pipeline.Sink.
func (s *Sink) Write(ctx context.Context, corpus domain.Corpus, info domain.ExportInfo) ([]domain.Artifact, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create directory: %w", err)
	}
	store, err := Open(ctx, s.path)
	if err != nil {
		return nil, err
	}
	if err := store.SaveCorpus(ctx, corpus, info); err != nil {
		store.Close()
		return nil, err
	}
	// Close checkpoints the WAL, so the size is read afterwards.
	if err := store.Close(); err != nil {
		return nil, err
	}

	art := domain.Artifact{Name: filepath.Base(s.path), Path: s.path}
	if fi, err := os.Stat(s.path); err == nil {
		art.Size = fi.Size()
	}
	return []domain.Artifact{art}, nil
}

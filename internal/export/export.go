// Package export implements the file-based sinks: JSON documents,
// statistics, the validation report and the compressed bundle.
package export

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// Default output file names.
const (
	DefaultCompleteJSON = "quran_complete.json"
	DefaultSimpleJSON   = "quran_simple.json"
	DefaultStatistics   = "quran_statistics.json"
	DefaultReport       = "quran_validation.yaml"
	DefaultBundle       = "quran_bundle.tar.xz"
	ManifestName        = "manifest.json"
)

// FileWriter abstracts atomic file creation in the output directory.
type FileWriter interface {
	WriteFile(ctx context.Context, name string, write func(io.Writer) error) (domain.Artifact, error)
}

// FileStore is a FileWriter that can also read back what it wrote.
type FileStore interface {
	FileWriter
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// encodeJSON writes v as indented UTF-8 JSON without HTML escaping.
func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

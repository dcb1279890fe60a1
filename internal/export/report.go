package export

import (
	"context"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// ReconcileSection lists the keys the reconciler could not pair.
type ReconcileSection struct {
	DroppedCount int      `yaml:"dropped_count"`
	Dropped      []string `yaml:"dropped"`
	Duplicates   []string `yaml:"duplicates,omitempty"`
}

// Report is the layout of the validation diagnostics file.
type Report struct {
	RunID        string           `yaml:"run_id"`
	Version      string           `yaml:"version"`
	GeneratedAt  string           `yaml:"generated_at"`
	Sources      []string         `yaml:"sources"`
	Reconcile    ReconcileSection `yaml:"reconcile"`
	Completeness *domain.Outcome  `yaml:"completeness"`
	Quality      *domain.Outcome  `yaml:"quality"`
}

// BuildReport assembles the diagnostics for info. Issue lists are kept in
// full.
func BuildReport(info domain.ExportInfo) Report {
	return Report{
		RunID:       info.RunID,
		Version:     info.Version,
		GeneratedAt: timestamp(info.GeneratedAt),
		Sources:     info.Sources,
		Reconcile: ReconcileSection{
			DroppedCount: len(info.Dropped),
			Dropped:      keyStrings(info.Dropped),
			Duplicates:   keyStrings(info.Duplicates),
		},
		Completeness: info.Completeness,
		Quality:      info.Quality,
	}
}

func keyStrings(keys []domain.VerseKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

// ReportWriter writes the diagnostics report as YAML.
type ReportWriter struct {
	files FileWriter
	name  string
}

// NewReportWriter creates a ReportWriter. An empty name takes the default.
func NewReportWriter(files FileWriter, name string) *ReportWriter {
	if name == "" {
		name = DefaultReport
	}
	return &ReportWriter{files: files, name: name}
}

// WriteReport implements pipeline.ReportWriter.
func (r *ReportWriter) WriteReport(ctx context.Context, info domain.ExportInfo) (domain.Artifact, error) {
	report := BuildReport(info)
	return r.files.WriteFile(ctx, r.name, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	})
}

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/engsaleh/quran-pipeline/internal/pipeline"
	"github.com/engsaleh/quran-pipeline/internal/validate"
)

// maxShownIssues bounds how many issues are printed before summarizing.
const maxShownIssues = 5

// writeJSON encodes v as JSON to w, handling I/O errors at the boundary.
func writeJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(w, "{\"error\":%q}\n", err.Error())
	}
}

// writeIssues prints up to maxShownIssues issues and a count of the rest.
func writeIssues(w io.Writer, issues []string) {
	for i, issue := range issues {
		if i == maxShownIssues {
			fmt.Fprintf(w, "  ... and %d more issues\n", len(issues)-maxShownIssues)
			return
		}
		fmt.Fprintf(w, "  - %s\n", issue)
	}
}

func formatSize(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

func writeRunSummary(w io.Writer, r *RunReport, runErr error) {
	fmt.Fprintf(w, "Run %s\n", r.RunID)
	if r.Surahs > 0 || r.Verses > 0 {
		fmt.Fprintf(w, "Collected %d surahs, %d verses", r.Surahs, r.Verses)
		if len(r.Dropped) > 0 {
			fmt.Fprintf(w, " (%d dropped during reconciliation)", len(r.Dropped))
		}
		fmt.Fprintln(w)
	}

	if r.Completeness != nil {
		if r.Completeness.Valid {
			fmt.Fprintln(w, "Completeness check passed")
		} else {
			fmt.Fprintf(w, "Found %d completeness issues:\n", len(r.Completeness.Issues))
			writeIssues(w, r.Completeness.Issues)
		}
	}
	if r.Quality != nil {
		if r.Quality.Valid {
			fmt.Fprintln(w, "Text quality check passed")
		} else {
			fmt.Fprintf(w, "Found quality issues in %v verses\n", r.Quality.Metadata[validate.KeyProblematicVerses])
			writeIssues(w, r.Quality.Issues)
		}
	}

	if len(r.Sinks) > 0 {
		fmt.Fprintln(w, "\nGenerated files:")
		for _, s := range r.Sinks {
			if s.Error != "" {
				fmt.Fprintf(w, "  %-10s FAILED: %s\n", s.Name, s.Error)
				continue
			}
			for _, a := range s.Artifacts {
				fmt.Fprintf(w, "  %-10s %-28s %s\n", s.Name, a.Name, formatSize(a.Size))
			}
		}
	}

	fmt.Fprintln(w)
	switch {
	case runErr == nil:
		fmt.Fprintf(w, "Pipeline completed successfully in %s\n", r.Duration)
		fmt.Fprintf(w, "Output directory: %s\n", r.OutputDir)
	case errors.As(runErr, new(*pipeline.CompletenessError)):
		fmt.Fprintln(w, "Pipeline stopped: the collected corpus is incomplete; nothing was exported")
	default:
		fmt.Fprintln(w, "Pipeline failed")
	}
	if r.ReportFile != "" {
		fmt.Fprintf(w, "Validation report: %s\n", r.ReportFile)
	}
	if r.LogFile != "" {
		fmt.Fprintf(w, "Log file: %s\n", r.LogFile)
	}
}

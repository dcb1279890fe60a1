package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// ErrIncompleteCollection is returned when an acquisition succeeds but
// yields no records.
var ErrIncompleteCollection = errors.New("incomplete collection")

// Exit codes reported by the typed pipeline errors.
const (
	ExitCompleteness = 2
	ExitExport       = 3
)

// CollectionError reports a terminal failure acquiring one source.
type CollectionError struct {
	Source string
	Err    error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect %s: %v", e.Source, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// CompletenessError stops a run before persistence.
type CompletenessError struct {
	Outcome *domain.Outcome
}

func (e *CompletenessError) Error() string {
	return fmt.Sprintf("completeness check failed with %d issues", len(e.Outcome.Issues))
}

// ExitCode returns the process exit code for a failed completeness check.
func (e *CompletenessError) ExitCode() int { return ExitCompleteness }

// SinkResult is the outcome of one sink write.
type SinkResult struct {
	Name      string
	Artifacts []domain.Artifact
	Err       error
	Duration  time.Duration
}

// OK reports whether the sink wrote without error.
func (r SinkResult) OK() bool { return r.Err == nil }

// ExportError reports that at least one sink failed. Results holds every
// sink's outcome, including the successful ones.
type ExportError struct {
	Results []SinkResult
}

func (e *ExportError) Error() string {
	var parts []string
	for _, r := range e.Results {
		if r.Err != nil {
			parts = append(parts, fmt.Sprintf("%s: %v", r.Name, r.Err))
		}
	}
	return "export failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual sink errors to errors.Is and errors.As.
func (e *ExportError) Unwrap() []error {
	var errs []error
	for _, r := range e.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// ExitCode returns the process exit code for a failed export.
func (e *ExportError) ExitCode() int { return ExitExport }

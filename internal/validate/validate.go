// Package validate checks a reconciled corpus against the reference table
// and a text-quality heuristic. Checks never fail; every finding is
// reported through a domain.Outcome.
package validate

import "github.com/engsaleh/quran-pipeline/internal/domain"

// Length bounds for the trimmed simple text, in runes.
const (
	MinTextLength = 3
	MaxTextLength = 1000
)

// DetailSampleSize caps the structured diagnostics kept in quality metadata.
// The issue list itself is never truncated.
const DetailSampleSize = 10

// Metadata keys.
const (
	KeyTotalSurahs       = "total_surahs"
	KeyTotalVerses       = "total_verses"
	KeyIssuesCount       = "issues_count"
	KeyTotalChecked      = "total_checked"
	KeyProblematicVerses = "problematic_verses"
	KeyIssuesDetail      = "issues_detail"
)

// Validator runs the corpus checks against a fixed reference table.
type Validator struct {
	ref domain.Reference
}

// New returns a Validator bound to ref.
func New(ref domain.Reference) *Validator {
	return &Validator{ref: ref}
}

// Reference returns the table the validator checks against.
func (v *Validator) Reference() domain.Reference {
	return v.ref
}

package validate

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// Completeness compares the corpus against the reference table: global
// totals, per-surah verse counts and contiguous numbering from 1. Every
// discrepancy is collected; the check does not stop at the first issue.
func (v *Validator) Completeness(surahs []domain.Surah, verses []domain.Verse) *domain.Outcome {
	out := domain.NewOutcome()

	if got, want := len(surahs), v.ref.TotalSurahs(); got != want {
		out.AddIssue(fmt.Sprintf("Incorrect surah count: expected %d, got %d", want, got))
	}
	if got, want := len(verses), v.ref.TotalVerses(); got != want {
		out.AddIssue(fmt.Sprintf("Incorrect verse count: expected %d, got %d", want, got))
	}

	indices := make(map[int]map[int]struct{})
	for _, vs := range verses {
		set, ok := indices[vs.Surah]
		if !ok {
			set = make(map[int]struct{})
			indices[vs.Surah] = set
		}
		set[vs.Number] = struct{}{}
	}

	sorted := slices.Clone(surahs)
	slices.SortStableFunc(sorted, func(a, b domain.Surah) int { return cmp.Compare(a.Number, b.Number) })

	listed := make(map[int]struct{}, len(sorted))
	for _, s := range sorted {
		if _, dup := listed[s.Number]; dup {
			out.AddIssue(fmt.Sprintf("Surah %d (%s): listed more than once", s.Number, s.NameArabic))
			continue
		}
		listed[s.Number] = struct{}{}

		expected, ok := v.ref.ExpectedVerses(s.Number)
		if !ok {
			out.AddIssue(fmt.Sprintf("Surah %d (%s): not in reference table", s.Number, s.NameArabic))
			continue
		}
		if s.VersesCount != expected {
			out.AddIssue(fmt.Sprintf("Surah %d (%s): declares %d verses, reference has %d",
				s.Number, s.NameArabic, s.VersesCount, expected))
		}

		set := indices[s.Number]
		if actual := len(set); actual != expected {
			out.AddIssue(fmt.Sprintf("Surah %d (%s): expected %d verses, got %d",
				s.Number, s.NameArabic, expected, actual))
		}
		if len(set) == 0 {
			continue
		}
		if missing := missingIndices(set, expected); len(missing) > 0 {
			out.AddIssue(fmt.Sprintf("Surah %d: missing verses %s", s.Number, formatIndices(missing)))
		}
	}

	for _, n := range v.ref.Numbers() {
		if _, ok := listed[n]; !ok {
			out.AddIssue(fmt.Sprintf("Surah %d: missing from surah list", n))
		}
	}

	orphans := make([]int, 0)
	for n := range indices {
		if _, ok := listed[n]; !ok {
			orphans = append(orphans, n)
		}
	}
	slices.Sort(orphans)
	for _, n := range orphans {
		out.AddIssue(fmt.Sprintf("Surah %d: %d verses reference a surah missing from the surah list", n, len(indices[n])))
	}

	out.Metadata[KeyTotalSurahs] = len(surahs)
	out.Metadata[KeyTotalVerses] = len(verses)
	out.Metadata[KeyIssuesCount] = len(out.Issues)
	return out
}

// missingIndices returns 1..expected minus set, ascending.
func missingIndices(set map[int]struct{}, expected int) []int {
	var missing []int
	for i := 1; i <= expected; i++ {
		if _, ok := set[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// formatIndices renders ints as "[1, 2, 3]".
func formatIndices(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

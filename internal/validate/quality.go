package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/engsaleh/quran-pipeline/internal/arabic"
	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// TextQuality flags verses with empty text, no Arabic letters in the simple
// text, or simple text outside the length bounds. The result is advisory.
func (v *Validator) TextQuality(verses []domain.Verse) *domain.Outcome {
	out := domain.NewOutcome()
	details := make([]domain.VerseDiagnostic, 0, DetailSampleSize)
	problematic := 0

	for _, vs := range verses {
		problems := verseProblems(vs)
		if len(problems) == 0 {
			continue
		}
		problematic++
		out.AddIssue(fmt.Sprintf("Verse %s - %s", vs.Key(), strings.Join(problems, ", ")))
		if len(details) < DetailSampleSize {
			details = append(details, domain.VerseDiagnostic{
				Surah:    vs.Surah,
				Verse:    vs.Number,
				Problems: problems,
			})
		}
	}

	out.Metadata[KeyTotalChecked] = len(verses)
	out.Metadata[KeyProblematicVerses] = problematic
	out.Metadata[KeyIssuesDetail] = details
	return out
}

// verseProblems returns the problem tags for one verse in a fixed order.
// The letter and length checks only apply when the simple text is not the
// empty string.
func verseProblems(vs domain.Verse) []string {
	var problems []string
	simple := strings.TrimSpace(vs.TextSimple)

	if simple == "" {
		problems = append(problems, domain.ProblemEmptySimpleText)
	}
	if strings.TrimSpace(vs.TextUthmani) == "" {
		problems = append(problems, domain.ProblemEmptyUthmaniText)
	}
	if vs.TextSimple == "" {
		return problems
	}

	if !arabic.HasArabicLetter(vs.TextSimple) {
		problems = append(problems, domain.ProblemNoArabic)
	}
	switch n := utf8.RuneCountInString(simple); {
	case n < MinTextLength:
		problems = append(problems, domain.ProblemTooShort)
	case n > MaxTextLength:
		problems = append(problems, domain.ProblemTooLong)
	}
	return problems
}

// Package reconcile merges the simple and Uthmani editions of the corpus
// into one verse record per (surah, verse) key.
package reconcile

import (
	"github.com/engsaleh/quran-pipeline/internal/arabic"
	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// Report describes the keys that could not be paired.
type Report struct {
	// MissingSimple holds Uthmani keys with no simple counterpart, in
	// Uthmani order.
	MissingSimple []domain.VerseKey
	// MissingUthmani holds simple keys that never appeared in the Uthmani
	// edition, in order of first appearance in the simple edition.
	MissingUthmani []domain.VerseKey
	// Duplicates holds keys seen more than once in the Uthmani edition.
	Duplicates []domain.VerseKey
}

// Dropped returns every key excluded from the merged output.
func (r Report) Dropped() []domain.VerseKey {
	out := make([]domain.VerseKey, 0, len(r.MissingSimple)+len(r.MissingUthmani))
	out = append(out, r.MissingSimple...)
	return append(out, r.MissingUthmani...)
}

// DroppedCount returns len(r.Dropped()).
func (r Report) DroppedCount() int {
	return len(r.MissingSimple) + len(r.MissingUthmani)
}

// Clean reports whether every key was paired exactly once.
func (r Report) Clean() bool {
	return r.DroppedCount() == 0 && len(r.Duplicates) == 0
}

// Reconcile pairs simple and Uthmani records by key. The output contains
// exactly the keys present in both inputs, once each, in the order the
// Uthmani edition first lists them. Uthmani text is cleaned; simple text is
// cleaned and stripped of diacritics. Inputs are not modified.
func Reconcile(simple, uthmani []domain.RawVerse) ([]domain.Verse, Report) {
	var report Report

	// Duplicate keys in the simple edition are resolved last-write-wins.
	// Upstream data has not been observed to carry duplicates, so the
	// choice only matters for malformed input.
	lookup := make(map[domain.VerseKey]string, len(simple))
	simpleOrder := make([]domain.VerseKey, 0, len(simple))
	for _, rv := range simple {
		k := rv.Key()
		if _, seen := lookup[k]; !seen {
			simpleOrder = append(simpleOrder, k)
		}
		lookup[k] = rv.Text
	}

	// A repeated Uthmani key keeps its first position; the later text wins.
	index := make(map[domain.VerseKey]int, len(uthmani))
	matched := make(map[domain.VerseKey]struct{}, len(uthmani))
	verses := make([]domain.Verse, 0, len(uthmani))
	for _, rv := range uthmani {
		k := rv.Key()
		text, ok := lookup[k]
		if !ok {
			report.MissingSimple = append(report.MissingSimple, k)
			continue
		}
		v := domain.Verse{
			Surah:       k.Surah,
			Number:      k.Verse,
			TextSimple:  arabic.Plain(text),
			TextUthmani: arabic.Clean(rv.Text),
		}
		if i, dup := index[k]; dup {
			report.Duplicates = append(report.Duplicates, k)
			verses[i] = v
			continue
		}
		index[k] = len(verses)
		matched[k] = struct{}{}
		verses = append(verses, v)
	}

	for _, k := range simpleOrder {
		if _, ok := matched[k]; !ok {
			report.MissingUthmani = append(report.MissingUthmani, k)
		}
	}

	return verses, report
}

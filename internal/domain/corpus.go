package domain

import (
	"cmp"
	"slices"
	"time"
)

// Corpus is the reconciled result of a run: surah metadata plus verses.
// Verse order is not guaranteed; consumers that need a stable order use
// SortedSurahs and VersesBySurah.
type Corpus struct {
	Surahs []Surah
	Verses []Verse
}

// SortedSurahs returns a copy of the surahs ordered by number.
func (c Corpus) SortedSurahs() []Surah {
	out := slices.Clone(c.Surahs)
	slices.SortFunc(out, func(a, b Surah) int { return cmp.Compare(a.Number, b.Number) })
	return out
}

// VersesBySurah groups verses by surah number, each group sorted by verse number.
func (c Corpus) VersesBySurah() map[int][]Verse {
	groups := make(map[int][]Verse)
	for _, v := range c.Verses {
		groups[v.Surah] = append(groups[v.Surah], v)
	}
	for _, vs := range groups {
		slices.SortFunc(vs, func(a, b Verse) int { return cmp.Compare(a.Number, b.Number) })
	}
	return groups
}

// Artifact describes one output produced by a sink.
type Artifact struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// ExportInfo is the run context handed to sinks alongside the corpus.
type ExportInfo struct {
	RunID        string
	Version      string
	GeneratedAt  time.Time
	Sources      []string
	Dropped      []VerseKey
	Duplicates   []VerseKey
	Completeness *Outcome
	Quality      *Outcome
	// Report is the validation report written for this run, empty when
	// writing it failed.
	Report       string
}

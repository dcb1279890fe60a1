package domain

import (
	"maps"
	"slices"
)

// Fixed totals of the canonical corpus.
const (
	TotalSurahs = 114
	TotalVerses = 6236
)

// standardVerseCounts is the canonical verse count of every surah, indexed
// by surah number. Index 0 is unused.
var standardVerseCounts = [TotalSurahs + 1]int{
	0,
	7, 286, 200, 176, 120, 165, 206, 75, 129, 109,
	123, 111, 43, 52, 99, 128, 111, 110, 98, 135,
	112, 78, 118, 64, 77, 227, 93, 88, 69, 60,
	34, 30, 73, 54, 45, 83, 182, 88, 75, 85,
	54, 53, 89, 59, 37, 35, 38, 29, 18, 45,
	60, 49, 62, 55, 78, 96, 29, 22, 24, 13,
	14, 11, 11, 18, 12, 12, 30, 52, 52, 44,
	28, 28, 20, 56, 40, 31, 50, 40, 46, 42,
	29, 19, 36, 25, 22, 17, 19, 26, 30, 20,
	15, 21, 11, 8, 8, 19, 5, 8, 8, 11,
	11, 8, 3, 9, 5, 4, 7, 3, 6, 3,
	5, 4, 5, 6,
}

// Reference is a read-only table of expected verse counts per surah.
// The zero value is an empty table.
type Reference struct {
	counts map[int]int
	total  int
}

var standardReference = func() Reference {
	m := make(map[int]int, TotalSurahs)
	for n := 1; n <= TotalSurahs; n++ {
		m[n] = standardVerseCounts[n]
	}
	return NewReference(m)
}()

// StandardReference returns the canonical reference table (114 surahs,
// 6236 verses).
func StandardReference() Reference {
	return standardReference
}

// NewReference builds a reference table from a copy of counts.
func NewReference(counts map[int]int) Reference {
	c := maps.Clone(counts)
	if c == nil {
		c = map[int]int{}
	}
	total := 0
	for _, n := range c {
		total += n
	}
	return Reference{counts: c, total: total}
}

// ExpectedVerses returns the expected verse count for a surah number.
func (r Reference) ExpectedVerses(surah int) (int, bool) {
	n, ok := r.counts[surah]
	return n, ok
}

// TotalSurahs returns the number of surahs in the table.
func (r Reference) TotalSurahs() int {
	return len(r.counts)
}

// TotalVerses returns the sum of all expected verse counts.
func (r Reference) TotalVerses() int {
	return r.total
}

// Numbers returns the surah numbers in ascending order.
func (r Reference) Numbers() []int {
	return slices.Sorted(maps.Keys(r.counts))
}

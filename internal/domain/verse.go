package domain

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVerseKey is returned when a verse key is malformed or out of range.
var ErrInvalidVerseKey = errors.New("invalid verse key")

// VerseKey is the composite identity of a verse within the corpus.
type VerseKey struct {
	Surah int
	Verse int
}

// String renders the key as "surah:verse".
func (k VerseKey) String() string {
	return strconv.Itoa(k.Surah) + ":" + strconv.Itoa(k.Verse)
}

// Validate checks the surah range and that the verse index is positive.
func (k VerseKey) Validate() error {
	if k.Surah < 1 || k.Surah > TotalSurahs {
		return fmt.Errorf("%w: surah %d out of range 1..%d", ErrInvalidVerseKey, k.Surah, TotalSurahs)
	}
	if k.Verse < 1 {
		return fmt.Errorf("%w: verse %d in surah %d", ErrInvalidVerseKey, k.Verse, k.Surah)
	}
	return nil
}

// Compare orders keys by surah, then by verse.
func (k VerseKey) Compare(other VerseKey) int {
	if c := cmp.Compare(k.Surah, other.Surah); c != 0 {
		return c
	}
	return cmp.Compare(k.Verse, other.Verse)
}

// ParseVerseKey parses "2:255". The verse part is required.
func ParseVerseKey(s string) (VerseKey, error) {
	surahPart, versePart, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return VerseKey{}, fmt.Errorf("%w: %q (want surah:verse)", ErrInvalidVerseKey, s)
	}
	surah, err := strconv.Atoi(surahPart)
	if err != nil {
		return VerseKey{}, fmt.Errorf("%w: %q", ErrInvalidVerseKey, s)
	}
	verse, err := strconv.Atoi(versePart)
	if err != nil {
		return VerseKey{}, fmt.Errorf("%w: %q", ErrInvalidVerseKey, s)
	}
	k := VerseKey{Surah: surah, Verse: verse}
	if err := k.Validate(); err != nil {
		return VerseKey{}, err
	}
	return k, nil
}

// RawVerse is a verse as delivered by one edition of the upstream source,
// before any cleaning.
type RawVerse struct {
	Surah  int
	Number int
	Text   string
}

// Key returns the composite identity of the record.
func (v RawVerse) Key() VerseKey {
	return VerseKey{Surah: v.Surah, Verse: v.Number}
}

// Verse is a reconciled verse carrying both cleaned text representations.
type Verse struct {
	Surah       int    `json:"surah"`
	Number      int    `json:"number"`
	TextSimple  string `json:"text_simple"`
	TextUthmani string `json:"text_uthmani"`
}

// Key returns the composite identity of the verse.
func (v Verse) Key() VerseKey {
	return VerseKey{Surah: v.Surah, Verse: v.Number}
}

// Package domain holds the corpus types shared by every pipeline stage.
// It has no dependencies outside the standard library.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSurah is returned when surah metadata violates its invariants.
var ErrInvalidSurah = errors.New("invalid surah")

// ErrInvalidRevelationType is returned for an unknown revelation tag.
var ErrInvalidRevelationType = errors.New("invalid revelation type")

// RevelationType classifies where a surah was revealed.
type RevelationType string

const (
	// Meccan surahs were revealed before the Hijra.
	Meccan RevelationType = "meccan"
	// Medinan surahs were revealed after the Hijra.
	Medinan RevelationType = "medinan"
)

// ParseRevelationType accepts the tag in any letter case.
func ParseRevelationType(s string) (RevelationType, error) {
	switch RevelationType(strings.ToLower(strings.TrimSpace(s))) {
	case Meccan:
		return Meccan, nil
	case Medinan:
		return Medinan, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRevelationType, s)
}

// Surah is the metadata of one division of the corpus.
type Surah struct {
	Number         int            `json:"number"`
	NameArabic     string         `json:"name_arabic"`
	NameEnglish    string         `json:"name_english"`
	RevelationType RevelationType `json:"revelation_type"`
	VersesCount    int            `json:"verses_count"`
}

// NewSurah builds a Surah and enforces the number and count invariants.
func NewSurah(number int, nameArabic, nameEnglish string, rt RevelationType, versesCount int) (Surah, error) {
	if number < 1 || number > TotalSurahs {
		return Surah{}, fmt.Errorf("%w: number %d out of range 1..%d", ErrInvalidSurah, number, TotalSurahs)
	}
	if versesCount < 1 {
		return Surah{}, fmt.Errorf("%w: surah %d has verses count %d", ErrInvalidSurah, number, versesCount)
	}
	if rt != Meccan && rt != Medinan {
		return Surah{}, fmt.Errorf("%w: surah %d: %w", ErrInvalidSurah, number, ErrInvalidRevelationType)
	}
	return Surah{
		Number:         number,
		NameArabic:     nameArabic,
		NameEnglish:    nameEnglish,
		RevelationType: rt,
		VersesCount:    versesCount,
	}, nil
}

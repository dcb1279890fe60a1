// Package arabic cleans and normalizes Arabic verse text. Every function is
// pure, total and safe for concurrent use.
package arabic

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const bom = '\ufeff'

// diacritics is the fixed set of Arabic combining marks removed by
// StripDiacritics: vowel signs, shadda, sukun and Quranic stop marks.
var diacritics = map[rune]struct{}{
	'\u064b': {}, '\u064c': {}, '\u064d': {}, '\u064e': {}, '\u064f': {}, '\u0650': {},
	'\u0651': {}, '\u0652': {}, '\u0653': {}, '\u0654': {}, '\u0655': {}, '\u0656': {},
	'\u0657': {}, '\u0658': {}, '\u0659': {}, '\u065a': {}, '\u065b': {}, '\u065c': {},
	'\u065d': {}, '\u065e': {}, '\u065f': {}, '\u0670': {}, '\u06d6': {}, '\u06d7': {},
	'\u06d8': {}, '\u06d9': {}, '\u06da': {}, '\u06db': {}, '\u06dc': {}, '\u06df': {},
	'\u06e0': {}, '\u06e1': {}, '\u06e2': {}, '\u06e3': {}, '\u06e4': {}, '\u06e7': {},
	'\u06e8': {}, '\u06ea': {}, '\u06eb': {}, '\u06ec': {}, '\u06ed': {},
}

// scriptRanges are the Unicode blocks kept by RestrictToScript. The
// Extended Arabic-Indic digits (U+06F0..U+06F9) fall inside the first range.
var scriptRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1},
		{Lo: 0x0750, Hi: 0x077F, Stride: 1},
		{Lo: 0x08A0, Hi: 0x08FF, Stride: 1},
		{Lo: 0xFB50, Hi: 0xFDFF, Stride: 1},
		{Lo: 0xFE70, Hi: 0xFEFE, Stride: 1},
	},
}

// IsDiacritic reports whether r belongs to the stripped diacritic set.
func IsDiacritic(r rune) bool {
	_, ok := diacritics[r]
	return ok
}

// InScript reports whether r is kept by RestrictToScript.
func InScript(r rune) bool {
	return unicode.Is(scriptRanges, r) || unicode.IsSpace(r)
}

// StripBOM removes any leading byte-order marks.
func StripBOM(s string) string {
	return strings.TrimLeft(s, string(bom))
}

// CollapseSpace replaces every run of whitespace with a single space and
// trims both ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize applies NFKC and then collapses whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return CollapseSpace(norm.NFKC.String(s))
}

// StripDiacritics removes every diacritic, keeping the remaining runes in order.
func StripDiacritics(s string) string {
	return strings.Map(func(r rune) rune {
		if IsDiacritic(r) {
			return -1
		}
		return r
	}, s)
}

// RestrictToScript drops every rune outside the Arabic blocks, keeping
// whitespace. U+FEFF is dropped even though it sits in the presentation
// forms block.
func RestrictToScript(s string) string {
	return strings.Map(func(r rune) rune {
		if InScript(r) {
			return r
		}
		return -1
	}, s)
}

// Clean is the canonical cleaning pipeline for verse text: strip BOM,
// normalize, restrict to the Arabic script, then normalize again so that
// marks left adjacent to their base letter recompose. Clean is idempotent.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	return Normalize(RestrictToScript(Normalize(StripBOM(s))))
}

// HasArabicLetter reports whether s contains a rune of the core Arabic
// block U+0600..U+06FF.
func HasArabicLetter(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return r >= 0x0600 && r <= 0x06FF
	})
}

// Plain derives the diacritic-free form of verse text: Clean, strip
// diacritics, then collapse the gaps left by standalone stop marks.
func Plain(s string) string {
	return CollapseSpace(StripDiacritics(Clean(s)))
}

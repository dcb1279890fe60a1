package reconcile

import (
	"slices"
	"testing"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

func raw(surah, verse int, text string) domain.RawVerse {
	return domain.RawVerse{Surah: surah, Number: verse, Text: text}
}

func keysOf(verses []domain.Verse) []domain.VerseKey {
	out := make([]domain.VerseKey, len(verses))
	for i, v := range verses {
		out[i] = v.Key()
	}
	return out
}

func TestReconcilePairsMatchingKeys(t *testing.T) {
	simple := []domain.RawVerse{
		raw(1, 1, "بسم الله الرحمن الرحيم"),
		raw(1, 2, "الحمد لله رب العالمين"),
	}
	uthmani := []domain.RawVerse{
		raw(1, 1, "بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ"),
		raw(1, 2, "ٱلْحَمْدُ لِلَّهِ رَبِّ ٱلْعَٰلَمِينَ"),
	}

	verses, report := Reconcile(simple, uthmani)

	if len(verses) != 2 {
		t.Fatalf("got %d verses, want 2", len(verses))
	}
	if !report.Clean() {
		t.Errorf("report = %+v, want clean", report)
	}
	if verses[0].TextUthmani != "بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ" {
		t.Errorf("TextUthmani = %q", verses[0].TextUthmani)
	}
	if verses[0].TextSimple != "بسم الله الرحمن الرحيم" {
		t.Errorf("TextSimple = %q", verses[0].TextSimple)
	}
}

func TestReconcileCleansBothTexts(t *testing.T) {
	simple := []domain.RawVerse{raw(2, 1, "\ufeffالٓمٓ  1")}
	uthmani := []domain.RawVerse{raw(2, 1, "  الٓمٓ <span>")}

	verses, _ := Reconcile(simple, uthmani)

	if len(verses) != 1 {
		t.Fatalf("got %d verses, want 1", len(verses))
	}
	if got, want := verses[0].TextSimple, "الم"; got != want {
		t.Errorf("TextSimple = %q, want %q", got, want)
	}
	if got, want := verses[0].TextUthmani, "الٓمٓ"; got != want {
		t.Errorf("TextUthmani = %q, want %q", got, want)
	}
}

func TestReconcileSimpleTextHasNoStopMarkGap(t *testing.T) {
	simple := []domain.RawVerse{raw(2, 2, "لَا رَيْبَ ۛ فِيهِ")}
	uthmani := []domain.RawVerse{raw(2, 2, "لَا رَيْبَ ۛ فِيهِ")}

	verses, _ := Reconcile(simple, uthmani)

	if len(verses) != 1 {
		t.Fatalf("got %d verses, want 1", len(verses))
	}
	if got, want := verses[0].TextSimple, "لا ريب فيه"; got != want {
		t.Errorf("TextSimple = %q, want %q", got, want)
	}
}

func TestReconcileFollowsUthmaniOrder(t *testing.T) {
	simple := []domain.RawVerse{
		raw(1, 1, "أ"), raw(1, 2, "ب"), raw(2, 1, "ت"),
	}
	uthmani := []domain.RawVerse{
		raw(2, 1, "ت"), raw(1, 2, "ب"), raw(1, 1, "أ"),
	}

	verses, _ := Reconcile(simple, uthmani)

	want := []domain.VerseKey{{Surah: 2, Verse: 1}, {Surah: 1, Verse: 2}, {Surah: 1, Verse: 1}}
	if got := keysOf(verses); !slices.Equal(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func TestReconcileDropsKeyMissingFromUthmani(t *testing.T) {
	simple := []domain.RawVerse{
		raw(5, 9, "أ"), raw(5, 10, "ب"), raw(5, 11, "ت"),
	}
	uthmani := []domain.RawVerse{
		raw(5, 9, "أ"), raw(5, 11, "ت"),
	}

	verses, report := Reconcile(simple, uthmani)

	for _, v := range verses {
		if v.Key() == (domain.VerseKey{Surah: 5, Verse: 10}) {
			t.Fatal("output contains 5:10")
		}
	}
	if report.DroppedCount() != 1 {
		t.Fatalf("DroppedCount() = %d, want 1", report.DroppedCount())
	}
	if got := report.Dropped(); got[0] != (domain.VerseKey{Surah: 5, Verse: 10}) {
		t.Errorf("Dropped() = %v, want [5:10]", got)
	}
	if len(report.MissingSimple) != 0 {
		t.Errorf("MissingSimple = %v, want empty", report.MissingSimple)
	}
}

func TestReconcileDropsKeyMissingFromSimple(t *testing.T) {
	simple := []domain.RawVerse{raw(1, 1, "أ")}
	uthmani := []domain.RawVerse{raw(1, 1, "أ"), raw(1, 2, "ب")}

	verses, report := Reconcile(simple, uthmani)

	if len(verses) != 1 {
		t.Fatalf("got %d verses, want 1", len(verses))
	}
	want := []domain.VerseKey{{Surah: 1, Verse: 2}}
	if !slices.Equal(report.MissingSimple, want) {
		t.Errorf("MissingSimple = %v, want %v", report.MissingSimple, want)
	}
	if !slices.Equal(report.Dropped(), want) {
		t.Errorf("Dropped() = %v, want %v", report.Dropped(), want)
	}
}

func TestReconcileSimpleDuplicateLastWriteWins(t *testing.T) {
	simple := []domain.RawVerse{raw(1, 1, "أول"), raw(1, 1, "ثاني")}
	uthmani := []domain.RawVerse{raw(1, 1, "مرقوم")}

	verses, report := Reconcile(simple, uthmani)

	if len(verses) != 1 {
		t.Fatalf("got %d verses, want 1", len(verses))
	}
	if verses[0].TextSimple != "ثاني" {
		t.Errorf("TextSimple = %q, want last simple record", verses[0].TextSimple)
	}
	if !report.Clean() {
		t.Errorf("report = %+v, want clean", report)
	}
}

func TestReconcileUthmaniDuplicateIsNotRepeated(t *testing.T) {
	simple := []domain.RawVerse{raw(1, 1, "أ"), raw(1, 2, "ب")}
	uthmani := []domain.RawVerse{raw(1, 1, "قديم"), raw(1, 2, "ب"), raw(1, 1, "جديد")}

	verses, report := Reconcile(simple, uthmani)

	want := []domain.VerseKey{{Surah: 1, Verse: 1}, {Surah: 1, Verse: 2}}
	if got := keysOf(verses); !slices.Equal(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	if verses[0].TextUthmani != "جديد" {
		t.Errorf("TextUthmani = %q, want later record", verses[0].TextUthmani)
	}
	if !slices.Equal(report.Duplicates, []domain.VerseKey{{Surah: 1, Verse: 1}}) {
		t.Errorf("Duplicates = %v", report.Duplicates)
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	verses, report := Reconcile(nil, nil)
	if len(verses) != 0 {
		t.Errorf("got %d verses, want 0", len(verses))
	}
	if !report.Clean() {
		t.Errorf("report = %+v, want clean", report)
	}
}

func TestReconcileDoesNotModifyInputs(t *testing.T) {
	simple := []domain.RawVerse{raw(1, 1, " أ ")}
	uthmani := []domain.RawVerse{raw(1, 1, " أَ ")}
	simpleCopy := slices.Clone(simple)
	uthmaniCopy := slices.Clone(uthmani)

	Reconcile(simple, uthmani)

	if !slices.Equal(simple, simpleCopy) || !slices.Equal(uthmani, uthmaniCopy) {
		t.Error("Reconcile modified its inputs")
	}
}

func TestReconcileKeyIntersectionLaw(t *testing.T) {
	tests := []struct {
		name    string
		simple  []domain.RawVerse
		uthmani []domain.RawVerse
	}{
		{"disjoint", []domain.RawVerse{raw(1, 1, "أ")}, []domain.RawVerse{raw(1, 2, "ب")}},
		{"identical", []domain.RawVerse{raw(1, 1, "أ"), raw(1, 2, "ب")}, []domain.RawVerse{raw(1, 1, "أ"), raw(1, 2, "ب")}},
		{"overlap", []domain.RawVerse{raw(1, 1, "أ"), raw(1, 2, "ب"), raw(3, 4, "ج")}, []domain.RawVerse{raw(3, 4, "ج"), raw(1, 2, "ب"), raw(9, 9, "د")}},
		{"duplicates both sides", []domain.RawVerse{raw(1, 1, "أ"), raw(1, 1, "ب")}, []domain.RawVerse{raw(1, 1, "أ"), raw(1, 1, "أ"), raw(2, 2, "ب")}},
		{"simple empty", nil, []domain.RawVerse{raw(1, 1, "أ")}},
		{"uthmani empty", []domain.RawVerse{raw(1, 1, "أ")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verses, report := Reconcile(tt.simple, tt.uthmani)

			inSimple := keySet(tt.simple)
			inUthmani := keySet(tt.uthmani)
			got := make(map[domain.VerseKey]int)
			for _, v := range verses {
				got[v.Key()]++
			}
			for k, n := range got {
				if n != 1 {
					t.Errorf("key %v emitted %d times", k, n)
				}
				if !inSimple[k] || !inUthmani[k] {
					t.Errorf("key %v not present in both inputs", k)
				}
			}
			for k := range inSimple {
				if inUthmani[k] && got[k] == 0 {
					t.Errorf("key %v present in both inputs but missing from output", k)
				}
			}
			for _, k := range report.Dropped() {
				if got[k] != 0 {
					t.Errorf("dropped key %v appears in output", k)
				}
			}
		})
	}
}

func keySet(records []domain.RawVerse) map[domain.VerseKey]bool {
	out := make(map[domain.VerseKey]bool, len(records))
	for _, r := range records {
		out[r.Key()] = true
	}
	return out
}

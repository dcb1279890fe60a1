package export

import (
	"context"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// Summary holds corpus-wide counts. Words are whitespace-separated tokens
// of the simple text; characters exclude ASCII spaces.
type Summary struct {
	GeneratedAt           string  `json:"generated_at"`
	Version               string  `json:"version"`
	RunID                 string  `json:"run_id,omitempty"`
	TotalSurahs           int     `json:"total_surahs"`
	TotalVerses           int     `json:"total_verses"`
	TotalWords            int     `json:"total_words"`
	TotalCharacters       int     `json:"total_characters"`
	MeccanSurahs          int     `json:"meccan_surahs"`
	MedinanSurahs         int     `json:"medinan_surahs"`
	AverageVersesPerSurah float64 `json:"average_verses_per_surah"`
	AverageWordsPerVerse  float64 `json:"average_words_per_verse"`
}

// SurahStatistics holds the counts of one surah.
type SurahStatistics struct {
	Number         int    `json:"number"`
	NameArabic     string `json:"name_arabic"`
	NameEnglish    string `json:"name_english"`
	RevelationType string `json:"revelation_type"`
	VersesCount    int    `json:"verses_count"`
	WordCount      int    `json:"word_count"`
	CharacterCount int    `json:"character_count"`
}

// Statistics is the layout of the statistics export.
type Statistics struct {
	Summary Summary           `json:"summary"`
	Surahs  []SurahStatistics `json:"surahs_detailed"`
}

// ComputeStatistics derives word and character counts from the corpus.
// Averages are rounded to two decimals and are zero for an empty corpus.
func ComputeStatistics(corpus domain.Corpus, info domain.ExportInfo) Statistics {
	groups := corpus.VersesBySurah()
	st := Statistics{
		Summary: Summary{
			GeneratedAt: timestamp(info.GeneratedAt),
			Version:     info.Version,
			RunID:       info.RunID,
			TotalSurahs: len(corpus.Surahs),
			TotalVerses: len(corpus.Verses),
		},
		Surahs: make([]SurahStatistics, 0, len(corpus.Surahs)),
	}

	for _, v := range corpus.Verses {
		st.Summary.TotalWords += wordCount(v.TextSimple)
		st.Summary.TotalCharacters += charCount(v.TextSimple)
	}

	for _, s := range corpus.SortedSurahs() {
		switch s.RevelationType {
		case domain.Meccan:
			st.Summary.MeccanSurahs++
		case domain.Medinan:
			st.Summary.MedinanSurahs++
		}
		ss := SurahStatistics{
			Number:         s.Number,
			NameArabic:     s.NameArabic,
			NameEnglish:    s.NameEnglish,
			RevelationType: string(s.RevelationType),
			VersesCount:    s.VersesCount,
		}
		for _, v := range groups[s.Number] {
			ss.WordCount += wordCount(v.TextSimple)
			ss.CharacterCount += charCount(v.TextSimple)
		}
		st.Surahs = append(st.Surahs, ss)
	}

	st.Summary.AverageVersesPerSurah = ratio(len(corpus.Verses), len(corpus.Surahs))
	st.Summary.AverageWordsPerVerse = ratio(st.Summary.TotalWords, len(corpus.Verses))
	return st
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func charCount(s string) int {
	return utf8.RuneCountInString(strings.ReplaceAll(s, " ", ""))
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(d)*100) / 100
}

// StatisticsSink writes the statistics document.
type StatisticsSink struct {
	files FileWriter
	name  string
}

// NewStatisticsSink creates a StatisticsSink. An empty name takes the default.
func NewStatisticsSink(files FileWriter, name string) *StatisticsSink {
	if name == "" {
		name = DefaultStatistics
	}
	return &StatisticsSink{files: files, name: name}
}

// Name implements pipeline.Sink.
func (s *StatisticsSink) Name() string { return "statistics" }

// Write implements pipeline.Sink.
func (s *StatisticsSink) Write(ctx context.Context, corpus domain.Corpus, info domain.ExportInfo) ([]domain.Artifact, error) {
	st := ComputeStatistics(corpus, info)
	art, err := s.files.WriteFile(ctx, s.name, func(w io.Writer) error { return encodeJSON(w, st) })
	if err != nil {
		return nil, err
	}
	return []domain.Artifact{art}, nil
}

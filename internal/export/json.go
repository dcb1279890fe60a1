package export

import (
	"context"
	"io"
	"strings"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// Document titles.
const (
	TitleComplete = "Holy Quran - Complete Data"
	TitleSimple   = "Holy Quran - Simple Text"
)

// Metadata heads every JSON document.
type Metadata struct {
	Title       string   `json:"title"`
	Version     string   `json:"version"`
	GeneratedAt string   `json:"generated_at"`
	RunID       string   `json:"run_id,omitempty"`
	TotalSurahs int      `json:"total_surahs"`
	TotalVerses int      `json:"total_verses"`
	Sources     []string `json:"sources"`
}

// SurahName carries both scripts of a surah name.
type SurahName struct {
	Arabic  string `json:"arabic"`
	English string `json:"english"`
}

// VerseText carries both verse representations.
type VerseText struct {
	Simple  string `json:"simple"`
	Uthmani string `json:"uthmani"`
}

// CompleteVerse is one verse in the complete document.
type CompleteVerse struct {
	Number int       `json:"number"`
	Text   VerseText `json:"text"`
}

// CompleteSurah is one surah in the complete document.
type CompleteSurah struct {
	Number         int             `json:"number"`
	Name           SurahName       `json:"name"`
	RevelationType string          `json:"revelation_type"`
	VersesCount    int             `json:"verses_count"`
	Verses         []CompleteVerse `json:"verses"`
}

// CompleteDocument is the layout of the complete JSON export.
type CompleteDocument struct {
	Metadata Metadata        `json:"metadata"`
	Surahs   []CompleteSurah `json:"surahs"`
}

// SimpleVerse is one verse in the simple document.
type SimpleVerse struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// SimpleSurah is one surah in the simple document.
type SimpleSurah struct {
	Number         int           `json:"number"`
	Name           SurahName     `json:"name"`
	RevelationType string        `json:"revelation_type"`
	Verses         []SimpleVerse `json:"verses"`
}

// SimpleDocument is the layout of the simple-text JSON export.
type SimpleDocument struct {
	Metadata Metadata      `json:"metadata"`
	Surahs   []SimpleSurah `json:"surahs"`
}

// JSONSink writes the complete and simple JSON documents.
type JSONSink struct {
	files        FileWriter
	completeName string
	simpleName   string
	sourceBase   string
}

// NewJSONSink creates a JSONSink. Empty names take the defaults. When
// sourceBase is set, sources are listed as "<sourceBase>/quran/<edition>".
func NewJSONSink(files FileWriter, completeName, simpleName, sourceBase string) *JSONSink {
	if completeName == "" {
		completeName = DefaultCompleteJSON
	}
	if simpleName == "" {
		simpleName = DefaultSimpleJSON
	}
	return &JSONSink{
		files:        files,
		completeName: completeName,
		simpleName:   simpleName,
		sourceBase:   strings.TrimRight(sourceBase, "/"),
	}
}

// Name implements pipeline.Sink.
func (s *JSONSink) Name() string { return "json" }

// Write implements pipeline.Sink. Surahs are sorted by number and verses by
// verse number.
func (s *JSONSink) Write(ctx context.Context, corpus domain.Corpus, info domain.ExportInfo) ([]domain.Artifact, error) {
	complete := BuildComplete(corpus, s.metadata(TitleComplete, corpus, info))
	simple := BuildSimple(complete)
	simple.Metadata.Title = TitleSimple

	a1, err := s.files.WriteFile(ctx, s.completeName, func(w io.Writer) error { return encodeJSON(w, complete) })
	if err != nil {
		return nil, err
	}
	a2, err := s.files.WriteFile(ctx, s.simpleName, func(w io.Writer) error { return encodeJSON(w, simple) })
	if err != nil {
		return []domain.Artifact{a1}, err
	}
	return []domain.Artifact{a1, a2}, nil
}

func (s *JSONSink) metadata(title string, corpus domain.Corpus, info domain.ExportInfo) Metadata {
	sources := make([]string, len(info.Sources))
	for i, ed := range info.Sources {
		if s.sourceBase != "" {
			sources[i] = s.sourceBase + "/quran/" + ed
		} else {
			sources[i] = ed
		}
	}
	return Metadata{
		Title:       title,
		Version:     info.Version,
		GeneratedAt: timestamp(info.GeneratedAt),
		RunID:       info.RunID,
		TotalSurahs: len(corpus.Surahs),
		TotalVerses: len(corpus.Verses),
		Sources:     sources,
	}
}

// BuildComplete lays out the corpus as a CompleteDocument.
func BuildComplete(corpus domain.Corpus, meta Metadata) CompleteDocument {
	groups := corpus.VersesBySurah()
	doc := CompleteDocument{Metadata: meta, Surahs: make([]CompleteSurah, 0, len(corpus.Surahs))}
	for _, s := range corpus.SortedSurahs() {
		verses := make([]CompleteVerse, 0, len(groups[s.Number]))
		for _, v := range groups[s.Number] {
			verses = append(verses, CompleteVerse{
				Number: v.Number,
				Text:   VerseText{Simple: v.TextSimple, Uthmani: v.TextUthmani},
			})
		}
		doc.Surahs = append(doc.Surahs, CompleteSurah{
			Number:         s.Number,
			Name:           SurahName{Arabic: s.NameArabic, English: s.NameEnglish},
			RevelationType: string(s.RevelationType),
			VersesCount:    s.VersesCount,
			Verses:         verses,
		})
	}
	return doc
}

// BuildSimple projects a complete document onto the simple layout.
func BuildSimple(complete CompleteDocument) SimpleDocument {
	doc := SimpleDocument{Metadata: complete.Metadata, Surahs: make([]SimpleSurah, 0, len(complete.Surahs))}
	doc.Metadata.Sources = append([]string(nil), complete.Metadata.Sources...)
	for _, s := range complete.Surahs {
		verses := make([]SimpleVerse, len(s.Verses))
		for i, v := range s.Verses {
			verses[i] = SimpleVerse{Number: v.Number, Text: v.Text.Simple}
		}
		doc.Surahs = append(doc.Surahs, SimpleSurah{
			Number:         s.Number,
			Name:           s.Name,
			RevelationType: s.RevelationType,
			Verses:         verses,
		})
	}
	return doc
}

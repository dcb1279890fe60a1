package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// memStore is an in-memory FileStore.
type memStore struct {
	mu       sync.Mutex
	files    map[string][]byte
	failName string
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (m *memStore) WriteFile(ctx context.Context, name string, write func(io.Writer) error) (domain.Artifact, error) {
	if name == m.failName {
		return domain.Artifact{}, errors.New("disk full")
	}
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return domain.Artifact{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = buf.Bytes()
	return domain.Artifact{Name: name, Path: "/mem/" + name, Size: int64(buf.Len())}, nil
}

func (m *memStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var testTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func testInfo() domain.ExportInfo {
	return domain.ExportInfo{
		RunID:       "run-42",
		Version:     "2.0.0",
		GeneratedAt: testTime,
		Sources:     []string{"quran-simple", "quran-uthmani"},
	}
}

// testCorpus returns two surahs and four verses, deliberately unsorted.
func testCorpus() domain.Corpus {
	return domain.Corpus{
		Surahs: []domain.Surah{
			{Number: 112, NameArabic: "الإخلاص", NameEnglish: "Al-Ikhlaas", RevelationType: domain.Meccan, VersesCount: 2},
			{Number: 110, NameArabic: "النصر", NameEnglish: "An-Nasr", RevelationType: domain.Medinan, VersesCount: 2},
		},
		Verses: []domain.Verse{
			{Surah: 112, Number: 2, TextSimple: "الله الصمد", TextUthmani: "ٱللَّهُ ٱلصَّمَدُ"},
			{Surah: 110, Number: 1, TextSimple: "إذا جاء نصر الله والفتح", TextUthmani: "إِذَا جَآءَ نَصْرُ ٱللَّهِ وَٱلْفَتْحُ"},
			{Surah: 112, Number: 1, TextSimple: "قل هو الله أحد", TextUthmani: "قُلْ هُوَ ٱللَّهُ أَحَدٌ"},
			{Surah: 110, Number: 2, TextSimple: "ورأيت الناس", TextUthmani: "وَرَأَيْتَ ٱلنَّاسَ"},
		},
	}
}

func TestJSONSinkComplete(t *testing.T) {
	store := newMemStore()
	sink := NewJSONSink(store, "", "", "https://api.alquran.cloud/v1/")

	arts, err := sink.Write(context.Background(), testCorpus(), testInfo())

	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(arts) != 2 || arts[0].Name != DefaultCompleteJSON || arts[1].Name != DefaultSimpleJSON {
		t.Fatalf("artifacts = %+v", arts)
	}

	var doc CompleteDocument
	if err := json.Unmarshal(store.files[DefaultCompleteJSON], &doc); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if doc.Metadata.Title != TitleComplete {
		t.Errorf("title = %q", doc.Metadata.Title)
	}
	if doc.Metadata.GeneratedAt != "2024-03-01T12:30:00Z" {
		t.Errorf("generated_at = %q", doc.Metadata.GeneratedAt)
	}
	if doc.Metadata.TotalSurahs != 2 || doc.Metadata.TotalVerses != 4 {
		t.Errorf("totals = %d/%d", doc.Metadata.TotalSurahs, doc.Metadata.TotalVerses)
	}
	wantSources := []string{
		"https://api.alquran.cloud/v1/quran/quran-simple",
		"https://api.alquran.cloud/v1/quran/quran-uthmani",
	}
	if strings.Join(doc.Metadata.Sources, ",") != strings.Join(wantSources, ",") {
		t.Errorf("sources = %v", doc.Metadata.Sources)
	}
	if doc.Surahs[0].Number != 110 || doc.Surahs[1].Number != 112 {
		t.Errorf("surahs not sorted: %d, %d", doc.Surahs[0].Number, doc.Surahs[1].Number)
	}
	s112 := doc.Surahs[1]
	if s112.Name.Arabic != "الإخلاص" || s112.RevelationType != "meccan" || s112.VersesCount != 2 {
		t.Errorf("surah 112 = %+v", s112)
	}
	if s112.Verses[0].Number != 1 || s112.Verses[1].Number != 2 {
		t.Errorf("verses not sorted: %+v", s112.Verses)
	}
	if s112.Verses[0].Text.Uthmani != "قُلْ هُوَ ٱللَّهُ أَحَدٌ" {
		t.Errorf("uthmani text = %q", s112.Verses[0].Text.Uthmani)
	}
}

func TestJSONSinkWritesUnescapedIndentedUTF8(t *testing.T) {
	store := newMemStore()
	corpus := testCorpus()
	corpus.Surahs[0].NameEnglish = "A<b>&c"

	if _, err := NewJSONSink(store, "", "", "").Write(context.Background(), corpus, testInfo()); err != nil {
		t.Fatal(err)
	}

	raw := string(store.files[DefaultCompleteJSON])
	if !strings.Contains(raw, "قل هو الله أحد") {
		t.Error("arabic text escaped in output")
	}
	if !strings.Contains(raw, "A<b>&c") {
		t.Error("html characters escaped in output")
	}
	if !strings.Contains(raw, "\n  \"metadata\": {") {
		t.Error("output not indented with two spaces")
	}
}

func TestJSONSinkSimple(t *testing.T) {
	store := newMemStore()

	if _, err := NewJSONSink(store, "c.json", "s.json", "").Write(context.Background(), testCorpus(), testInfo()); err != nil {
		t.Fatal(err)
	}

	var doc SimpleDocument
	if err := json.Unmarshal(store.files["s.json"], &doc); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if doc.Metadata.Title != TitleSimple {
		t.Errorf("title = %q", doc.Metadata.Title)
	}
	if got := doc.Surahs[0].Verses[1].Text; got != "ورأيت الناس" {
		t.Errorf("text = %q", got)
	}
	if strings.Join(doc.Metadata.Sources, ",") != "quran-simple,quran-uthmani" {
		t.Errorf("sources = %v", doc.Metadata.Sources)
	}
	var generic struct {
		Surahs []map[string]any `json:"surahs"`
	}
	if err := json.Unmarshal(store.files["s.json"], &generic); err != nil {
		t.Fatal(err)
	}
	if _, ok := generic.Surahs[0]["verses_count"]; ok {
		t.Error("simple document should not carry verses_count")
	}
}

func TestJSONSinkPropagatesWriteFailure(t *testing.T) {
	store := newMemStore()
	store.failName = DefaultSimpleJSON

	arts, err := NewJSONSink(store, "", "", "").Write(context.Background(), testCorpus(), testInfo())

	if err == nil {
		t.Fatal("expected error")
	}
	if len(arts) != 1 || arts[0].Name != DefaultCompleteJSON {
		t.Errorf("artifacts = %+v, want the complete file only", arts)
	}
}

func TestComputeStatistics(t *testing.T) {
	st := ComputeStatistics(testCorpus(), testInfo())

	sum := st.Summary
	if sum.TotalSurahs != 2 || sum.TotalVerses != 4 {
		t.Errorf("totals = %d/%d", sum.TotalSurahs, sum.TotalVerses)
	}
	// 2 + 5 + 4 + 2 words.
	if sum.TotalWords != 13 {
		t.Errorf("TotalWords = %d, want 13", sum.TotalWords)
	}
	if sum.MeccanSurahs != 1 || sum.MedinanSurahs != 1 {
		t.Errorf("meccan/medinan = %d/%d", sum.MeccanSurahs, sum.MedinanSurahs)
	}
	if sum.AverageVersesPerSurah != 2 {
		t.Errorf("AverageVersesPerSurah = %v, want 2", sum.AverageVersesPerSurah)
	}
	if sum.AverageWordsPerVerse != 3.25 {
		t.Errorf("AverageWordsPerVerse = %v, want 3.25", sum.AverageWordsPerVerse)
	}
	if len(st.Surahs) != 2 || st.Surahs[0].Number != 110 {
		t.Fatalf("surahs_detailed = %+v", st.Surahs)
	}
	if st.Surahs[1].WordCount != 6 {
		t.Errorf("surah 112 word count = %d, want 6", st.Surahs[1].WordCount)
	}
	// "قل هو الله أحد" has 11 letters, "الله الصمد" has 9.
	if st.Surahs[1].CharacterCount != 20 {
		t.Errorf("surah 112 character count = %d, want 20", st.Surahs[1].CharacterCount)
	}
	if sum.TotalCharacters != st.Surahs[0].CharacterCount+st.Surahs[1].CharacterCount {
		t.Errorf("TotalCharacters = %d does not match per-surah sum", sum.TotalCharacters)
	}
}

func TestComputeStatisticsEmptyCorpus(t *testing.T) {
	st := ComputeStatistics(domain.Corpus{}, testInfo())

	if st.Summary.AverageVersesPerSurah != 0 || st.Summary.AverageWordsPerVerse != 0 {
		t.Errorf("averages = %v/%v, want 0/0", st.Summary.AverageVersesPerSurah, st.Summary.AverageWordsPerVerse)
	}
	if st.Surahs == nil {
		t.Error("surahs_detailed should be an empty list, not null")
	}
}

func TestRatioRoundsToTwoDecimals(t *testing.T) {
	tests := []struct {
		n, d int
		want float64
	}{
		{6236, 114, 54.7},
		{1, 3, 0.33},
		{2, 3, 0.67},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := ratio(tt.n, tt.d); got != tt.want {
			t.Errorf("ratio(%d, %d) = %v, want %v", tt.n, tt.d, got, tt.want)
		}
	}
}

func TestStatisticsSink(t *testing.T) {
	store := newMemStore()

	arts, err := NewStatisticsSink(store, "").Write(context.Background(), testCorpus(), testInfo())

	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(arts) != 1 || arts[0].Name != DefaultStatistics {
		t.Errorf("artifacts = %+v", arts)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(store.files[DefaultStatistics], &decoded); err != nil {
		t.Fatal(err)
	}
	keys := make([]string, 0, len(decoded))
	for k := range decoded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if strings.Join(keys, ",") != "summary,surahs_detailed" {
		t.Errorf("top-level keys = %v", keys)
	}
}

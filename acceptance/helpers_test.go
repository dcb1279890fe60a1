package acceptance_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// runQuranpipe executes the binary against the given API and output
// directory and returns stdout, stderr, and exit code. HOME is isolated so a
// developer config file cannot leak in.
func runQuranpipe(t *testing.T, apiURL, outDir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(quranpipeBinary, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(),
		"HOME="+cmd.Dir,
		"QURANPIPE_API_BASE_URL="+apiURL,
		"QURANPIPE_API_BACKOFF_BASE=1ms",
		"QURANPIPE_OUTPUT_DIR="+outDir,
		"QURANPIPE_POSTGRES_DSN=",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run quranpipe: %v", err)
		}
	}
	return stdout.String(), stderr.String(), exitCode
}

// runQuranpipeSuccess runs the binary expecting exit code 0 and returns stdout.
func runQuranpipeSuccess(t *testing.T, apiURL, outDir string, args ...string) string {
	t.Helper()
	stdout, stderr, exitCode := runQuranpipe(t, apiURL, outDir, args...)
	if exitCode != 0 {
		t.Fatalf("expected exit 0, got %d\nargs: %v\nstdout: %s\nstderr: %s", exitCode, args, stdout, stderr)
	}
	return stdout
}

// decodeJSON parses stdout into a generic map.
func decodeJSON(t *testing.T, stdout string) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\noutput: %s", err, stdout)
	}
	return result
}

// assertFileExists fails the test if path is missing or empty.
func assertFileExists(t *testing.T, dir, name string) {
	t.Helper()
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		t.Errorf("expected %s to exist: %v", name, err)
		return
	}
	if info.Size() == 0 {
		t.Errorf("expected %s to be non-empty", name)
	}
}

// fakeAPI serves a synthetic corpus shaped like the upstream API. Every
// surah carries the standard verse count unless counts overrides it.
type fakeAPI struct {
	counts map[int]int
}

func newFakeAPI(t *testing.T, overrides map[int]int) *httptest.Server {
	t.Helper()
	ref := domain.StandardReference()
	counts := make(map[int]int, ref.TotalSurahs())
	for _, n := range ref.Numbers() {
		counts[n], _ = ref.ExpectedVerses(n)
	}
	for n, c := range overrides {
		counts[n] = c
	}
	srv := httptest.NewServer(&fakeAPI{counts: counts})
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/surah":
		f.writeSurahs(w)
	case strings.HasPrefix(r.URL.Path, "/quran/"):
		edition := strings.TrimPrefix(r.URL.Path, "/quran/")
		f.writeEdition(w, strings.Contains(edition, "uthmani"))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) writeSurahs(w http.ResponseWriter) {
	ref := domain.StandardReference()
	var b strings.Builder
	b.WriteString(`{"code":200,"status":"OK","data":[`)
	for i, n := range ref.Numbers() {
		if i > 0 {
			b.WriteByte(',')
		}
		expected, _ := ref.ExpectedVerses(n)
		fmt.Fprintf(&b, `{"number":%d,"name":"سورة %d","englishName":"Surah %d","revelationType":"Meccan","numberOfAyahs":%d}`,
			n, n, n, expected)
	}
	b.WriteString(`]}`)
	fmt.Fprint(w, b.String())
}

func (f *fakeAPI) writeEdition(w http.ResponseWriter, uthmani bool) {
	text := "بسم الله الرحمن الرحيم"
	if uthmani {
		text = "بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ"
	}
	var b strings.Builder
	b.WriteString(`{"code":200,"status":"OK","data":{"surahs":[`)
	for i, n := range domain.StandardReference().Numbers() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"number":%d,"ayahs":[`, n)
		for v := 1; v <= f.counts[n]; v++ {
			if v > 1 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, `{"numberInSurah":%d,"text":%q}`, v, text)
		}
		b.WriteString(`]}`)
	}
	b.WriteString(`]}}`)
	fmt.Fprint(w, b.String())
}

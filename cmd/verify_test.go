package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// mockVerifyRunner is a test double for VerifyRunner.
type mockVerifyRunner struct {
	report *VerifyReport
	err    error
}

func (m *mockVerifyRunner) Verify(ctx context.Context) (*VerifyReport, error) {
	return m.report, m.err
}

func newTestVerifyCmd(runner *mockVerifyRunner, args ...string) (*cobra.Command, *bytes.Buffer) {
	root := NewRootCmd()
	root.AddCommand(NewVerifyCmd(runner))
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(append([]string{"verify"}, args...))
	return root, buf
}

func verifiedReport() *VerifyReport {
	return &VerifyReport{
		Database:     "output/quran_database.sqlite",
		Metadata:     map[string]string{"run_id": "run-9", "last_updated": "2024-03-01T12:30:00Z"},
		Surahs:       114,
		Verses:       6236,
		Completeness: passedOutcome(),
		Quality:      passedOutcome(),
	}
}

func TestVerifyCmd_Passing(t *testing.T) {
	cmd, buf := newTestVerifyCmd(&mockVerifyRunner{report: verifiedReport()})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Database: output/quran_database.sqlite",
		"Last run: run-9 (2024-03-01T12:30:00Z)",
		"Surahs: 114, verses: 6236",
		"Completeness check passed",
		"Text quality check passed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVerifyCmd_IncompleteDatabaseExitsTwo(t *testing.T) {
	report := verifiedReport()
	report.Completeness = failedOutcome("Missing surahs: [5]")
	root := NewRootCmd()
	root.AddCommand(NewVerifyCmd(&mockVerifyRunner{report: report}))
	stdout := new(bytes.Buffer)

	code := RunCLI(root, []string{"verify"}, stdout, new(bytes.Buffer))

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stdout.String(), "Missing surahs: [5]") {
		t.Errorf("issue not printed:\n%s", stdout.String())
	}
}

func TestVerifyCmd_QualityIssuesDoNotFail(t *testing.T) {
	report := verifiedReport()
	report.Quality = failedOutcome("Verse 1:1 - empty simple text")
	cmd, buf := newTestVerifyCmd(&mockVerifyRunner{report: report})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Found 1 text quality issues:") {
		t.Errorf("output:\n%s", buf.String())
	}
}

func TestVerifyCmd_JSON(t *testing.T) {
	cmd, buf := newTestVerifyCmd(&mockVerifyRunner{report: verifiedReport()}, "--json")

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got VerifyReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Verses != 6236 || !got.Completeness.Valid || got.Metadata["run_id"] != "run-9" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestVerifyCmd_RunnerError(t *testing.T) {
	runErr := &ContextError{Path: "output/quran_database.sqlite", Err: ErrNoDatabase}
	cmd, buf := newTestVerifyCmd(&mockVerifyRunner{err: runErr})

	err := cmd.Execute()

	if !errors.Is(err, ErrNoDatabase) {
		t.Errorf("err = %v, want ErrNoDatabase", err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
}

package cmd

import (
	"context"
	"testing"
)

func TestExecute(t *testing.T) {
	// Reset args to avoid test pollution
	rootCmd.SetArgs([]string{})

	err := Execute()
	if err != nil {
		t.Errorf("Execute() returned unexpected error: %v", err)
	}
}

func TestRootCommandUse(t *testing.T) {
	if rootCmd.Use != "quranpipe" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "quranpipe")
	}
}

func TestRootCommandShort(t *testing.T) {
	want := "Collect, validate and export the Quran text corpus"
	if rootCmd.Short != want {
		t.Errorf("rootCmd.Short = %q, want %q", rootCmd.Short, want)
	}
}

func TestRootCommandVerboseFlag(t *testing.T) {
	cmd := NewRootCmd()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	if verboseFlag == nil {
		t.Fatal("expected --verbose persistent flag to exist")
	}

	vFlag := cmd.PersistentFlags().ShorthandLookup("v")
	if vFlag == nil {
		t.Fatal("expected -v shorthand for --verbose")
	}

	if verboseFlag.DefValue != "false" {
		t.Errorf("--verbose default = %q, want %q", verboseFlag.DefValue, "false")
	}
}

func TestRootCommandConfigFlag(t *testing.T) {
	cmd := NewRootCmd()

	f := cmd.PersistentFlags().Lookup("config")
	if f == nil {
		t.Fatal("expected --config persistent flag to exist")
	}
	if f.DefValue != "" {
		t.Errorf("--config default = %q, want empty", f.DefValue)
	}
}

func TestGetVerbose(t *testing.T) {
	if GetVerbose() {
		t.Error("GetVerbose() should default to false")
	}
}

func TestExecuteContext(t *testing.T) {
	rootCmd.SetArgs([]string{})

	ctx := context.Background()
	err := ExecuteContext(ctx)
	if err != nil {
		t.Errorf("ExecuteContext() returned unexpected error: %v", err)
	}
}

func TestExecuteContext_WithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Must not panic; whether an error is returned depends on the command.
	rootCmd.SetArgs([]string{})
	_ = ExecuteContext(ctx)
}

func TestRootCommandJSONFlag(t *testing.T) {
	cmd := NewRootCmd()

	jsonFlag := cmd.PersistentFlags().Lookup("json")
	if jsonFlag == nil {
		t.Fatal("expected --json persistent flag to exist")
	}

	if jsonFlag.DefValue != "false" {
		t.Errorf("--json default = %q, want %q", jsonFlag.DefValue, "false")
	}
}

func TestGetJSON(t *testing.T) {
	if GetJSON() {
		t.Error("GetJSON() should default to false")
	}
}

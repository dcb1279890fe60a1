package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/engsaleh/quran-pipeline/internal/domain"
	"github.com/engsaleh/quran-pipeline/internal/pipeline"
)

// VerifyReport holds the validation of a stored corpus.
type VerifyReport struct {
	Database     string            `json:"database"`
	Metadata     map[string]string `json:"metadata"`
	Surahs       int               `json:"surahs"`
	Verses       int               `json:"verses"`
	Completeness *domain.Outcome   `json:"completeness"`
	Quality      *domain.Outcome   `json:"quality"`
}

// VerifyRunner re-validates a previously exported database.
type VerifyRunner interface {
	Verify(ctx context.Context) (*VerifyReport, error)
}

// NewVerifyCmd creates the verify command with the given runner.
func NewVerifyCmd(runner VerifyRunner) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:          "verify",
		Short:        "Re-run the completeness and quality checks on the SQLite export",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runner.Verify(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput || GetJSON() {
				writeJSON(cmd.OutOrStdout(), report)
			} else {
				writeVerifyHuman(cmd.OutOrStdout(), report)
			}
			if !report.Completeness.Valid {
				return &pipeline.CompletenessError{Outcome: report.Completeness}
			}
			return nil
		},
	}

	cmd.Flags().String("database", "", "SQLite database to verify (default from output settings)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func writeVerifyHuman(w io.Writer, r *VerifyReport) {
	fmt.Fprintf(w, "Database: %s\n", r.Database)
	if runID := r.Metadata["run_id"]; runID != "" {
		fmt.Fprintf(w, "Last run: %s (%s)\n", runID, r.Metadata["last_updated"])
	}
	fmt.Fprintf(w, "Surahs: %d, verses: %d\n", r.Surahs, r.Verses)
	if r.Completeness.Valid {
		fmt.Fprintln(w, "Completeness check passed")
	} else {
		fmt.Fprintf(w, "Found %d completeness issues:\n", len(r.Completeness.Issues))
		writeIssues(w, r.Completeness.Issues)
	}
	if r.Quality.Valid {
		fmt.Fprintln(w, "Text quality check passed")
	} else {
		fmt.Fprintf(w, "Found %d text quality issues:\n", len(r.Quality.Issues))
		writeIssues(w, r.Quality.Issues)
	}
}

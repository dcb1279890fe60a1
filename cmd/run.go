package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// RunOptions carries run flags that do not map onto a config key.
type RunOptions struct {
	NoBundle bool
}

// SinkReport is the outcome of one export target.
type SinkReport struct {
	Name      string            `json:"name"`
	Artifacts []domain.Artifact `json:"artifacts"`
	Error     string            `json:"error,omitempty"`
	Duration  string            `json:"duration"`
}

// RunReport summarizes a pipeline run for display.
type RunReport struct {
	RunID        string          `json:"run_id"`
	Duration     string          `json:"duration"`
	OutputDir    string          `json:"output_dir"`
	LogFile      string          `json:"log_file"`
	ReportFile   string          `json:"report_file,omitempty"`
	Surahs       int             `json:"surahs"`
	Verses       int             `json:"verses"`
	Dropped      []string        `json:"dropped"`
	Completeness *domain.Outcome `json:"completeness,omitempty"`
	Quality      *domain.Outcome `json:"quality,omitempty"`
	Sinks        []SinkReport    `json:"sinks"`
}

// PipelineRunner executes one ingestion run. A non-nil report may
// accompany an error so partial progress can still be shown.
type PipelineRunner interface {
	Run(ctx context.Context, opts RunOptions) (*RunReport, error)
}

// NewRunCmd creates the run command with the given runner.
func NewRunCmd(runner PipelineRunner) *cobra.Command {
	var (
		jsonOutput bool
		opts       RunOptions
	)

	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Collect, validate and export the corpus",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runner.Run(cmd.Context(), opts)
			if report != nil {
				if jsonOutput || GetJSON() {
					writeJSON(cmd.OutOrStdout(), report)
				} else {
					writeRunSummary(cmd.OutOrStdout(), report, err)
				}
			}
			return err
		},
	}

	cmd.Flags().String("output-dir", "", "Directory for exported files")
	cmd.Flags().String("postgres-dsn", "", "Also mirror the corpus into this PostgreSQL database")
	cmd.Flags().BoolVar(&opts.NoBundle, "no-bundle", false, "Skip the compressed bundle")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

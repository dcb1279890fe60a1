package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/engsaleh/quran-pipeline/internal/config"
)

// ConfigLoader returns the effective configuration.
type ConfigLoader func() (config.Config, error)

// NewConfigCmd creates the config command, which prints the effective
// configuration after defaults, file, environment and flags are applied.
func NewConfigCmd(load ConfigLoader) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:          "config",
		Short:        "Print the effective configuration as TOML",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			settings := cfg.Settings()
			if jsonOutput || GetJSON() {
				writeJSON(cmd.OutOrStdout(), settings)
				return nil
			}
			out, err := toml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

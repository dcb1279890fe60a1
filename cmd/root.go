// Package cmd contains the CLI commands for the quranpipe application.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/engsaleh/quran-pipeline/internal/config"
)

// Version is stamped on exports and the HTTP User-Agent.
var Version = "2.0.0"

var rootCmd *cobra.Command

// settings holds the layered configuration shared by every command.
var settings = config.New()

// verbose holds the global --verbose flag state.
var verbose bool

// jsonFlag holds the global --json flag state.
var jsonFlag bool

// cfgFile holds the global --config flag.
var cfgFile string

func init() {
	rootCmd = BuildCommandTree(newRunners(settings))
}

// GetVerbose returns the current verbose flag state.
func GetVerbose() bool {
	return verbose
}

// GetJSON reports whether the global --json flag was set.
func GetJSON() bool {
	return jsonFlag
}

// flagKeys maps command flags to the configuration keys they override.
var flagKeys = map[string]string{
	"output-dir":   "output.dir",
	"postgres-dsn": "postgres.dsn",
	"database":     "output.database_file",
}

// NewRootCmd creates a new root command instance.
// This is useful for testing to get a fresh command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quranpipe",
		Short:         "Collect, validate and export the Quran text corpus",
		Long:          "quranpipe downloads the simple and Uthmani editions, reconciles and validates them, and exports JSON, SQLite and statistics files.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(settings, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .quranpipe.yaml in the working or home directory)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")
	cmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output results as JSON")

	return cmd
}

// initConfig reads the config file and binds the flags of the running
// command onto their configuration keys.
func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	if err := config.ReadFile(v, cfgFile, dirs...); err != nil {
		return err
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Runners bundles the services behind each subcommand.
type Runners struct {
	Run    PipelineRunner
	Verify VerifyRunner
	Show   ShowRunner
	Config ConfigLoader
}

// BuildCommandTree returns a root command with every subcommand attached.
func BuildCommandTree(r Runners) *cobra.Command {
	root := NewRootCmd()
	root.AddCommand(NewRunCmd(r.Run))
	root.AddCommand(NewVerifyCmd(r.Verify))
	root.AddCommand(NewShowCmd(r.Show))
	root.AddCommand(NewConfigCmd(r.Config))
	return root
}

// Execute runs the root command and returns any error.
// Deprecated: Use ExecuteContext instead for proper signal handling.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context.
// This enables graceful shutdown via context cancellation (e.g., on SIGINT).
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/recallkit/recall/internal/tracing"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Recall - hybrid memory search for LLM agents",
	Long: `Recall stores agent memories in SQLite and retrieves them with a
hybrid search engine that fuses keyword matching and semantic
vector similarity.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupTracing,
	PersistentPostRun: teardownTracing,
}

// setupTracing installs the tracer provider and tags the invocation with a
// request id so every log line of one command run correlates.
func setupTracing(cmd *cobra.Command, args []string) error {
	if err := tracing.InitOpenTelemetry("recall"); err != nil {
		return err
	}
	cmd.SetContext(tracing.WithRequestID(cmd.Context(), tracing.NewTraceID()))
	return nil
}

func teardownTracing(cmd *cobra.Command, args []string) {
	_ = tracing.ShutdownOpenTelemetry(cmd.Context())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.recall/recall.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

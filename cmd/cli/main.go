package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RISKGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "riskgen",
		Short: "riskgen - contract-driven API test synthesis",
		Long: `riskgen turns an OpenAPI or Swagger contract into executable API test cases
and ranks endpoints by failure risk learned from past execution logs.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("project-dir", ".", "Directory holding .riskgen.yaml")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("history-backend", "", "Feature history backend (parquet, sqlite, mysql, postgres, memory)")
	rootCmd.PersistentFlags().String("history-dsn", "", "Feature history file path or connection string")

	// Add subcommands
	rootCmd.AddCommand(generateCmd(v))
	rootCmd.AddCommand(featuresCmd(v))
	rootCmd.AddCommand(scoreCmd(v))
	rootCmd.AddCommand(dedupeCmd(v))
	rootCmd.AddCommand(runCmd(v))

	return rootCmd
}

// setLogLevel applies a textual level to the global logger
func setLogLevel(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// Package cli provides the command-line interface for the Thesaurus
// extraction service.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AndriiKulakovskyi/thesaurus/internal/cli/commands"
	"github.com/AndriiKulakovskyi/thesaurus/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "thesaurus",
		Short: "Thesaurus - Clinical Data Extraction Service",
		Long: `Thesaurus serves extraction queries against a catalog of clinical studies.

Researchers ask for logical variables across study tables; the engine
resolves them against the live physical schema, coerces filters into safe
SQL, and merges per-table results into a single response.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Clinical Data Extraction Service
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./thesaurus.yaml)")
	rootCmd.PersistentFlags().String("listen", "", "HTTP listen address")
	rootCmd.PersistentFlags().String("catalog-dir", "", "Path to the study catalog directory")
	rootCmd.PersistentFlags().String("schema-pattern", "", "Physical schema name pattern, e.g. _prod_thesaurus_%s")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewServeCommand(GetConfig))
	rootCmd.AddCommand(commands.NewExtractCommand(GetConfig))
	rootCmd.AddCommand(commands.NewCatalogCommand(GetConfig))
	rootCmd.AddCommand(commands.NewSetupCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg, _ := config.Load("", nil)
	return cfg
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const exampleConfig = `# Thesaurus service configuration
listen: ":8200"
catalog_dir: catalog
schema_pattern: "_prod_thesaurus_%s"

database:
  type: postgres
  host: localhost
  port: 5432
  database: thesaurus
  username: thesaurus
  # password via THESAURUS_DATABASE__PASSWORD

fuzzy_threshold: 0.8
table_timeout: 30s
workers: 4
default_limit: 1000
schema_cache_ttl: 30s
`

const exampleStudies = `studies:
  - name: example_study
    description: Example study, replace with your own
    contact: data-team@example.org
`

const exampleTable = `name: demographics
description: Baseline demographics
variables:
  - name: usubjid
    description: Subject identifier
    type: text
  - name: age
    description: Age at inclusion
    type: integer
`

// NewSetupCommand creates the setup command.
func NewSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup [dir]",
		Short: "Scaffold a new service directory",
		Long: `Create a starter layout: a thesaurus.yaml config, a catalog directory
with an example study index, and one example table descriptor.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runSetup(cmd, dir)
		},
	}
}

func runSetup(cmd *cobra.Command, dir string) error {
	files := map[string]string{
		filepath.Join(dir, "thesaurus.yaml"):                               exampleConfig,
		filepath.Join(dir, "catalog", "studies.yaml"):                      exampleStudies,
		filepath.Join(dir, "catalog", "example_study", "demographics.yml"): exampleTable,
	}

	for path, content := range files {
		if _, err := os.Stat(path); err == nil {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exists, skipping: %s\n", path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created: %s\n", path)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "\nNext: edit thesaurus.yaml, then run `thesaurus serve`")
	return nil
}

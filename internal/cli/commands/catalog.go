package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/AndriiKulakovskyi/thesaurus/internal/catalog"
	"github.com/AndriiKulakovskyi/thesaurus/internal/cli/config"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(getConfig ConfigGetter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the study catalog",
	}
	cmd.AddCommand(newCatalogStudiesCommand(getConfig))
	cmd.AddCommand(newCatalogTablesCommand(getConfig))
	return cmd
}

// openCatalog loads the catalog without touching the study database.
func openCatalog(cfg *config.Config) (*catalog.Store, error) {
	if err := cfg.ValidateCatalogDir(); err != nil {
		return nil, err
	}
	return catalog.NewStore(cfg.CatalogDir, newLogger(cfg.Verbose))
}

func newCatalogStudiesCommand(getConfig ConfigGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "studies",
		Short: "List the studies in the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCatalog(getConfig(cmd.Context()))
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Study", "Description", "Tables", "Tags"})
			for _, study := range store.Catalog().Studies() {
				t.AppendRow(table.Row{
					study.Name, study.Description, len(study.Tables), strings.Join(study.Tags, ", "),
				})
			}
			t.Render()
			return nil
		},
	}
}

func newCatalogTablesCommand(getConfig ConfigGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "tables <study>",
		Short: "List a study's tables and variables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCatalog(getConfig(cmd.Context()))
			if err != nil {
				return err
			}

			study, ok := store.Catalog().Study(args[0])
			if !ok {
				return fmt.Errorf("study %q is not in the catalog", args[0])
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Table", "Variable", "Type", "Description"})
			for _, tbl := range study.Tables {
				if len(tbl.Variables) == 0 {
					t.AppendRow(table.Row{tbl.Name, "", "", tbl.Description})
					continue
				}
				for _, v := range tbl.Variables {
					t.AppendRow(table.Row{tbl.Name, v.Name, v.Type, v.Description})
				}
			}
			t.Render()
			return nil
		},
	}
}

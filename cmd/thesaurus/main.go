// Package main provides the CLI for the Thesaurus extraction service.
package main

import (
	"os"

	"github.com/AndriiKulakovskyi/thesaurus/internal/cli"

	// Register the supported database adapters and their dialects.
	_ "github.com/AndriiKulakovskyi/thesaurus/pkg/adapters/duckdb"
	_ "github.com/AndriiKulakovskyi/thesaurus/pkg/adapters/postgres"
	_ "github.com/AndriiKulakovskyi/thesaurus/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package commands implements the thesaurus subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AndriiKulakovskyi/thesaurus/internal/catalog"
	"github.com/AndriiKulakovskyi/thesaurus/internal/cli/config"
	"github.com/AndriiKulakovskyi/thesaurus/internal/extract"
	"github.com/AndriiKulakovskyi/thesaurus/internal/schema"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapter"
)

// ConfigGetter retrieves the loaded config from a command context. Injected
// by the cli package to avoid an import cycle.
type ConfigGetter func(ctx context.Context) *config.Config

// CommandContext bundles everything a database-backed command needs.
type CommandContext struct {
	Config  *config.Config
	Logger  *slog.Logger
	Adapter adapter.Adapter
	Engine  *extract.Engine
	Catalog *catalog.Store
}

// NewCommandContext connects to the study database and builds the engine.
// The returned cleanup closes the connection.
func NewCommandContext(cmd *cobra.Command, getConfig ConfigGetter) (*CommandContext, func(), error) {
	cfg := getConfig(cmd.Context())

	logger := newLogger(cfg.Verbose)

	db, err := adapter.New(cfg.Database.Type, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Connect(cmd.Context(), adapter.Config{
		Type:     cfg.Database.Type,
		Path:     cfg.Database.Path,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to study database: %w", err)
	}
	cleanup := func() { _ = db.Close() }

	if err := cfg.ValidateCatalogDir(); err != nil {
		cleanup()
		return nil, nil, err
	}
	store, err := catalog.NewStore(cfg.CatalogDir, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	schemas := schema.NewCache(db, cfg.SchemaCacheTTL, logger)
	engine := extract.New(db, schemas, extract.Options{
		FuzzyThreshold: cfg.FuzzyThreshold,
		TableTimeout:   cfg.TableTimeout,
		Workers:        cfg.Workers,
		DefaultLimit:   cfg.DefaultLimit,
		SchemaPattern:  cfg.SchemaPattern,
	}, logger)

	return &CommandContext{
		Config:  cfg,
		Logger:  logger,
		Adapter: db,
		Engine:  engine,
		Catalog: store,
	}, cleanup, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

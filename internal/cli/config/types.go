// Package config loads service configuration from file, environment
// variables, and CLI flags.
package config

import "time"

// DatabaseConfig holds the study database connection settings.
type DatabaseConfig struct {
	Type     string `koanf:"type"`
	Path     string `koanf:"path"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Config is the resolved service configuration.
type Config struct {
	Listen     string         `koanf:"listen"`
	CatalogDir string         `koanf:"catalog_dir"`
	Database   DatabaseConfig `koanf:"database"`

	// SchemaPattern maps a study name to its physical schema, e.g.
	// "_prod_thesaurus_%s".
	SchemaPattern string `koanf:"schema_pattern"`

	FuzzyThreshold float64       `koanf:"fuzzy_threshold"`
	TableTimeout   time.Duration `koanf:"table_timeout"`
	Workers        int           `koanf:"workers"`
	DefaultLimit   int           `koanf:"default_limit"`
	SchemaCacheTTL time.Duration `koanf:"schema_cache_ttl"`

	// Watch reloads the catalog when descriptor files change.
	Watch   bool `koanf:"watch"`
	Verbose bool `koanf:"verbose"`
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults.
const (
	DefaultListen        = ":8200"
	DefaultCatalogDir    = "catalog"
	DefaultSchemaPattern = "_prod_thesaurus_%s"
)

// configFileUsed tracks which config file the last load read, for
// diagnostics.
var configFileUsed string

// GetConfigFileUsed returns the path of the config file used in the last
// load, or empty if none was found.
func GetConfigFileUsed() string {
	return configFileUsed
}

// findConfigFile finds the config file to use.
// Priority: explicit path > thesaurus.yaml > thesaurus.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"thesaurus.yaml", "thesaurus.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"listen":           DefaultListen,
		"catalog_dir":      DefaultCatalogDir,
		"schema_pattern":   DefaultSchemaPattern,
		"fuzzy_threshold":  0.8,
		"table_timeout":    30 * time.Second,
		"workers":          4,
		"default_limit":    1000,
		"schema_cache_ttl": 30 * time.Second,
		"watch":            false,
		"verbose":          false,
		"database.type":    "postgres",
		"database.host":    "localhost",
		"database.port":    5432,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (THESAURUS_ prefix).
	// THESAURUS_DATABASE__HOST -> database.host, THESAURUS_LISTEN -> listen
	if err := k.Load(env.Provider("THESAURUS_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "THESAURUS_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"os"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Database.Type == "" {
		return fmt.Errorf("database.type is required")
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold must be between 0 and 1, got %v", c.FuzzyThreshold)
	}
	if c.DefaultLimit < 0 {
		return fmt.Errorf("default_limit must not be negative, got %d", c.DefaultLimit)
	}
	return nil
}

// ValidateCatalogDir checks if the catalog directory exists. Split from
// Validate so help and version commands work without one.
func (c *Config) ValidateCatalogDir() error {
	if _, err := os.Stat(c.CatalogDir); os.IsNotExist(err) {
		return fmt.Errorf("catalog directory does not exist: %s\nHint: Create the directory or use --catalog-dir to specify a different path", c.CatalogDir)
	}
	return nil
}

package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// studiesFile is the catalog index: the list of studies the service exposes.
const studiesFile = "studies.yaml"

// studiesIndex is the wire form of studies.yaml.
type studiesIndex struct {
	Studies []Study `yaml:"studies"`
}

// Load reads a catalog directory: studies.yaml at the root, plus one
// <table>.yml descriptor per table under each study's subdirectory. A
// malformed table descriptor is logged and skipped; it never fails the whole
// load. A missing or unreadable studies.yaml does.
func Load(dir string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	data, err := os.ReadFile(filepath.Join(dir, studiesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog index: %w", err)
	}

	var index studiesIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", studiesFile, err)
	}

	c := &Catalog{studies: make(map[string]*Study, len(index.Studies))}
	for i := range index.Studies {
		study := index.Studies[i]
		if study.Name == "" {
			logger.Warn("study entry without a name skipped", "file", studiesFile)
			continue
		}
		if _, dup := c.studies[study.Name]; dup {
			logger.Warn("duplicate study entry skipped", "study", study.Name)
			continue
		}

		study.Tables = loadTables(filepath.Join(dir, study.Name), logger)
		c.studies[study.Name] = &study
		c.order = append(c.order, study.Name)
	}

	return c, nil
}

// loadTables reads every table descriptor under one study directory. The
// directory may be absent: a study listed in the index without descriptors
// is still served, with an empty table list.
func loadTables(dir string, logger *slog.Logger) []Table {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read study directory", "dir", dir, "error", err)
		}
		return nil
	}

	var tables []Table
	for _, entry := range entries {
		if entry.IsDir() || !isDescriptor(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		table, err := loadTable(path)
		if err != nil {
			logger.Warn("table descriptor skipped", "file", path, "error", err)
			continue
		}
		tables = append(tables, table)
	}
	return tables
}

func loadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("invalid YAML: %w", err)
	}

	// The descriptor's filename is authoritative when the name field is
	// absent.
	if table.Name == "" {
		base := filepath.Base(path)
		table.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return table, nil
}

func isDescriptor(name string) bool {
	if name == studiesFile {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".yml" || ext == ".yaml"
}

package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Factory creates a new, unconnected adapter instance.
type Factory func(logger *slog.Logger) Adapter

// Adapter registry
var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register registers an adapter factory under a database type name.
// Called by adapter implementations in their init() functions.
func Register(dbType string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[strings.ToLower(dbType)] = f
}

// New creates an adapter for the given database type.
func New(dbType string, logger *slog.Logger) (Adapter, error) {
	factoriesMu.RLock()
	f, ok := factories[strings.ToLower(dbType)]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown database type %q (registered: %s)", dbType, strings.Join(Types(), ", "))
	}
	return f(logger), nil
}

// Types returns all registered database type names (sorted).
func Types() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

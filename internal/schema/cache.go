package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapter"
)

// Cache caches introspected physical schemas with a short TTL.
// Concurrent callers asking for the same schema share one introspection via
// singleflight; refresh replaces the cached snapshot atomically.
type Cache struct {
	db     adapter.Adapter
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group
}

type entry struct {
	schema  *PhysicalSchema
	fetched time.Time
}

// NewCache creates a schema cache. A ttl of zero or less disables caching:
// every Get introspects the database.
func NewCache(db adapter.Adapter, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		db:      db,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Get returns the schema snapshot for the given schema name, introspecting
// the database on a miss or after expiry.
func (c *Cache) Get(ctx context.Context, name string) (*PhysicalSchema, error) {
	if c.ttl > 0 {
		c.mu.RLock()
		e := c.entries[name]
		c.mu.RUnlock()
		if e != nil && time.Since(e.fetched) < c.ttl {
			return e.schema, nil
		}
	}

	// The closure captures the first caller's ctx; concurrent callers for
	// the same schema share that introspection.
	v, err, _ := c.group.Do(name, func() (any, error) {
		start := time.Now()
		metas, err := c.db.IntrospectSchema(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect schema %s: %w", name, err)
		}
		s := FromMetadata(name, metas)
		c.logger.Debug("introspected schema",
			"schema", name, "tables", s.Len(), "elapsed", time.Since(start))

		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[name] = &entry{schema: s, fetched: time.Now()}
			c.mu.Unlock()
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PhysicalSchema), nil
}

// Invalidate drops the cached snapshot for a schema, forcing the next Get to
// introspect again.
func (c *Cache) Invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}

package schema

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndriiKulakovskyi/thesaurus/pkg/adapter"
	"github.com/AndriiKulakovskyi/thesaurus/pkg/dialect"
)

// countingAdapter records how many times IntrospectSchema is called.
type countingAdapter struct {
	adapter.BaseSQLAdapter
	calls atomic.Int64
	metas []adapter.TableMetadata
	err   error
}

func (c *countingAdapter) Connect(context.Context, adapter.Config) error { return nil }

func (c *countingAdapter) IntrospectSchema(context.Context, string) ([]adapter.TableMetadata, error) {
	c.calls.Add(1)
	return c.metas, c.err
}

func (c *countingAdapter) Dialect() *dialect.Dialect { return &dialect.Dialect{Name: "counting"} }

func TestCacheGet_CachedWithinTTL(t *testing.T) {
	db := &countingAdapter{metas: testMetadata()}
	cache := NewCache(db, time.Minute, slog.New(slog.DiscardHandler))

	first, err := cache.Get(context.Background(), "s1")
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "s1")
	require.NoError(t, err)

	assert.Same(t, first, second, "within TTL the same snapshot must be returned")
	assert.Equal(t, int64(1), db.calls.Load())
}

func TestCacheGet_TTLDisabled(t *testing.T) {
	db := &countingAdapter{metas: testMetadata()}
	cache := NewCache(db, 0, nil)

	_, err := cache.Get(context.Background(), "s1")
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), db.calls.Load(), "ttl 0 must introspect per request")
}

func TestCacheGet_DistinctSchemas(t *testing.T) {
	db := &countingAdapter{metas: testMetadata()}
	cache := NewCache(db, time.Minute, nil)

	_, err := cache.Get(context.Background(), "s1")
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), "s2")
	require.NoError(t, err)

	assert.Equal(t, int64(2), db.calls.Load())
}

func TestCacheInvalidate(t *testing.T) {
	db := &countingAdapter{metas: testMetadata()}
	cache := NewCache(db, time.Minute, nil)

	_, err := cache.Get(context.Background(), "s1")
	require.NoError(t, err)

	cache.Invalidate("s1")

	_, err = cache.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), db.calls.Load())
}

func TestCacheGet_IntrospectionError(t *testing.T) {
	db := &countingAdapter{err: assert.AnError}
	cache := NewCache(db, time.Minute, nil)

	_, err := cache.Get(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to introspect schema s1")
}

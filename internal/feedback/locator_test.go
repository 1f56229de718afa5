package feedback

import (
	"context"
	"testing"

	"brew-reviews/internal/database"
	"brew-reviews/internal/logger"

	"github.com/stretchr/testify/assert"
)

type mapCache struct {
	entries map[string]string
	sets    int
}

func (c *mapCache) Get(_ context.Context, productID string) (string, bool) {
	v, ok := c.entries[productID]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, productID, collection string) {
	c.entries[productID] = collection
	c.sets++
}

func newLocator(db database.DocumentStore, cache LocatorCache) *ProductLocator {
	return NewProductLocator(db, []string{"brewed-drinks", "raw-beans"}, "products", cache, logger.Discard())
}

func TestLocatePrefersPriorityOrder(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	seedProduct(t, db, "raw-beans", "P1")
	seedProduct(t, db, "raw-beans", "P2")

	l := newLocator(db, nil)
	assert.Equal(t, "brewed-drinks", l.Locate(context.Background(), "P1"))
	assert.Equal(t, "raw-beans", l.Locate(context.Background(), "P2"))
}

func TestLocateFallsBackForUnknownProduct(t *testing.T) {
	l := newLocator(database.NewMemoryStore(), nil)
	assert.Equal(t, "products", l.Locate(context.Background(), "ghost"))
}

func TestLocateTreatsProbeErrorsAsAbsent(t *testing.T) {
	mem := database.NewMemoryStore()
	seedProduct(t, mem, "brewed-drinks", "P1")
	seedProduct(t, mem, "raw-beans", "P1")
	db := &faultyStore{DocumentStore: mem, fail: failOn("exists", "brewed-drinks")}

	assert.Equal(t, "raw-beans", newLocator(db, nil).Locate(context.Background(), "P1"))
}

func TestLocateUsesCache(t *testing.T) {
	mem := database.NewMemoryStore()
	seedProduct(t, mem, "raw-beans", "P1")
	cache := &mapCache{entries: map[string]string{"P9": "brewed-drinks"}}
	l := newLocator(mem, cache)

	assert.Equal(t, "brewed-drinks", l.Locate(context.Background(), "P9"))
	assert.Equal(t, "raw-beans", l.Locate(context.Background(), "P1"))
	assert.Equal(t, "raw-beans", cache.entries["P1"])

	// Fallback answers are not cached.
	assert.Equal(t, "products", l.Locate(context.Background(), "ghost"))
	assert.Equal(t, 1, cache.sets)
}

func TestCollectionsEndsWithFallback(t *testing.T) {
	l := newLocator(database.NewMemoryStore(), nil)
	assert.Equal(t, []string{"brewed-drinks", "raw-beans", "products"}, l.Collections())

	dup := NewProductLocator(database.NewMemoryStore(), []string{"products", "raw-beans"}, "products", nil, logger.Discard())
	assert.Equal(t, []string{"products", "raw-beans"}, dup.Collections())
}

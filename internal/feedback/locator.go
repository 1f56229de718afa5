// Package feedback implements product reviews, threaded comments, reactions and
// rating aggregation on top of a database.DocumentStore.
package feedback

import (
	"context"
	"log/slog"

	"brew-reviews/internal/database"
)

// LocatorCache memoizes the collection a product was found in.
type LocatorCache interface {
	Get(ctx context.Context, productID string) (string, bool)
	Set(ctx context.Context, productID, collection string)
}

// ProductLocator resolves which product collection holds a product id.
type ProductLocator struct {
	db          database.DocumentStore
	collections []string
	fallback    string
	cache       LocatorCache
	logger      *slog.Logger
}

// NewProductLocator probes collections in the given order and answers fallback when
// none holds the product. cache may be nil.
func NewProductLocator(db database.DocumentStore, collections []string, fallback string, cache LocatorCache, logger *slog.Logger) *ProductLocator {
	return &ProductLocator{
		db:          db,
		collections: append([]string(nil), collections...),
		fallback:    fallback,
		cache:       cache,
		logger:      logger,
	}
}

// Locate never fails: probe errors count as "not here" and an unknown product maps
// to the fallback collection whether or not it exists there.
func (l *ProductLocator) Locate(ctx context.Context, productID string) string {
	if l.cache != nil {
		if collection, ok := l.cache.Get(ctx, productID); ok {
			return collection
		}
	}

	for _, collection := range l.collections {
		found, err := l.db.Exists(ctx, collection, productID)
		if err != nil {
			l.logger.Debug("product probe failed",
				slog.String("collection", collection),
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if found {
			if l.cache != nil {
				l.cache.Set(ctx, productID, collection)
			}
			return collection
		}
	}
	return l.fallback
}

// Collections returns every collection a product may live in, fallback last.
func (l *ProductLocator) Collections() []string {
	out := append([]string(nil), l.collections...)
	for _, c := range out {
		if c == l.fallback {
			return out
		}
	}
	return append(out, l.fallback)
}

// ReviewsPath is the reviews subcollection of a product in a given collection.
func ReviewsPath(productCollection, productID string) string {
	return database.SubcollectionPath(productCollection, productID, database.ReviewsCollection)
}

package simulator

import (
	"context"
	"fmt"
	"log/slog"

	"brew-reviews/internal/database"
)

var productNames = []string{
	"Ethiopia Guji", "Colombia Huila", "Kenya Nyeri", "House Espresso", "Decaf Swiss Water",
	"Flat White", "Cortado", "Cold Brew", "Oat Latte", "Pour Over Flight",
}

// productDocument is the minimum the engine needs to locate a product.
type productDocument struct {
	Name string `bson:"name" firestore:"name"`
}

// SeedCatalog writes the simulated products into collection and one order per
// buying user, so the purchase gate passes for a BuyerRatio share of users.
// Documents are written with fixed ids and can be re-seeded.
func SeedCatalog(ctx context.Context, store database.DocumentStore, collection string, cfg SimConfig, logger *slog.Logger) error {
	products := ProductIDs(cfg.NumProducts)
	for i, id := range products {
		doc := productDocument{Name: productNames[i%len(productNames)]}
		if err := store.Create(ctx, collection, id, doc); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", id, err)
		}
	}

	buyers := int(float64(cfg.NumUsers) * cfg.BuyerRatio)
	items := make([]database.OrderItemDocument, len(products))
	for i, id := range products {
		items[i] = database.OrderItemDocument{ProductID: id}
	}
	for i := 0; i < buyers; i++ {
		order := database.OrderDocument{UserID: UserID(i), Items: items}
		if err := store.Create(ctx, database.OrdersCollection, fmt.Sprintf("sim-order-%d", i), order); err != nil {
			return fmt.Errorf("failed to seed order for %s: %w", UserID(i), err)
		}
	}

	logger.Info("catalog seeded",
		slog.String("collection", collection),
		slog.Int("products", len(products)),
		slog.Int("buyers", buyers),
	)
	return nil
}

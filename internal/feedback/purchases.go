package feedback

import (
	"context"
	"log/slog"

	"brew-reviews/internal/database"
)

// PurchaseVerifier answers whether a user has ordered a product.
type PurchaseVerifier struct {
	db     database.DocumentStore
	logger *slog.Logger
}

func NewPurchaseVerifier(db database.DocumentStore, logger *slog.Logger) *PurchaseVerifier {
	return &PurchaseVerifier{db: db, logger: logger}
}

// HasPurchased checks the global orders collection, then the user's own orders
// subcollection. Read or decode failures are logged and answer false.
func (v *PurchaseVerifier) HasPurchased(ctx context.Context, userID, productID string) bool {
	if userID == "" || productID == "" {
		return false
	}

	global, err := v.db.Query(ctx, database.OrdersCollection, database.FieldUserID, userID)
	if err != nil {
		v.fail("global orders query failed", userID, productID, err)
		return false
	}
	found, err := containsProduct(global, productID)
	if err != nil {
		v.fail("global order decode failed", userID, productID, err)
		return false
	}
	if found {
		return true
	}

	userOrders := database.SubcollectionPath(database.UsersCollection, userID, database.OrdersCollection)
	own, err := v.db.List(ctx, userOrders)
	if err != nil {
		v.fail("user orders read failed", userID, productID, err)
		return false
	}
	found, err = containsProduct(own, productID)
	if err != nil {
		v.fail("user order decode failed", userID, productID, err)
		return false
	}
	return found
}

func containsProduct(snaps []database.Snapshot, productID string) (bool, error) {
	for _, snap := range snaps {
		order, err := database.DecodeOrder(snap)
		if err != nil {
			return false, err
		}
		if order.Contains(productID) {
			return true, nil
		}
	}
	return false, nil
}

func (v *PurchaseVerifier) fail(msg, userID, productID string, err error) {
	v.logger.Warn(msg,
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.String("error", err.Error()),
	)
}

package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"brew-reviews/internal/database"
	"brew-reviews/internal/logger"
	"brew-reviews/internal/models"

	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// testClock advances one minute per reading so creation order is total.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestServices(t *testing.T, db database.DocumentStore, mutate ...func(*Options)) *Services {
	t.Helper()
	opts := Options{
		ProductCollections: []string{"brewed-drinks", "raw-beans"},
		FallbackCollection: "products",
		Logger:             logger.Discard(),
		Clock:              newTestClock().Now,
		NewID:              sequentialIDs(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return New(db, opts)
}

func seedProduct(t *testing.T, db database.DocumentStore, collection, productID string) {
	t.Helper()
	require.NoError(t, db.Create(context.Background(), collection, productID, map[string]any{"name": productID}))
}

func seedGlobalOrder(t *testing.T, db database.DocumentStore, orderID, userID string, productIDs ...string) {
	t.Helper()
	order := database.OrderDocument{UserID: userID}
	for _, p := range productIDs {
		order.Items = append(order.Items, database.OrderItemDocument{ProductID: p})
	}
	require.NoError(t, db.Create(context.Background(), database.OrdersCollection, orderID, order))
}

func author(userID string) models.Author {
	return models.Author{UserID: userID, UserName: "user " + userID, UserEmail: userID + "@example.com"}
}

func newReview(productID, userID string, rating int) models.NewReview {
	return models.NewReview{
		ProductID: productID,
		Author:    author(userID),
		Rating:    rating,
		Content:   "Smooth body with notes of cocoa.",
	}
}

func addReview(t *testing.T, svc *Services, productID, userID string, rating int) *models.Review {
	t.Helper()
	review, err := svc.Reviews.Add(context.Background(), newReview(productID, userID, rating))
	require.NoError(t, err)
	return review
}

func addComment(t *testing.T, svc *Services, reviewID, userID string, parent *string) *models.Comment {
	t.Helper()
	c, err := svc.Comments.Add(context.Background(), models.NewComment{
		ReviewID:        reviewID,
		Author:          author(userID),
		Content:         "Agreed, lovely cup.",
		ParentCommentID: parent,
	})
	require.NoError(t, err)
	return c
}

func getReview(t *testing.T, db database.DocumentStore, collection, id string) *models.Review {
	t.Helper()
	snap, err := db.Get(context.Background(), collection, id)
	require.NoError(t, err)
	review, err := database.DecodeReview(snap)
	require.NoError(t, err)
	return review
}

// faultyStore fails the operations selected by fail and delegates the rest.
type faultyStore struct {
	database.DocumentStore
	fail func(op, collection string) error
}

func (f *faultyStore) check(op, collection string) error {
	if f.fail == nil {
		return nil
	}
	return f.fail(op, collection)
}

func (f *faultyStore) Create(ctx context.Context, collection, id string, data any) error {
	if err := f.check("create", collection); err != nil {
		return err
	}
	return f.DocumentStore.Create(ctx, collection, id, data)
}

func (f *faultyStore) Get(ctx context.Context, collection, id string) (database.Snapshot, error) {
	if err := f.check("get", collection); err != nil {
		return nil, err
	}
	return f.DocumentStore.Get(ctx, collection, id)
}

func (f *faultyStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	if err := f.check("exists", collection); err != nil {
		return false, err
	}
	return f.DocumentStore.Exists(ctx, collection, id)
}

func (f *faultyStore) Query(ctx context.Context, collection, field string, value any) ([]database.Snapshot, error) {
	if err := f.check("query", collection); err != nil {
		return nil, err
	}
	return f.DocumentStore.Query(ctx, collection, field, value)
}

func (f *faultyStore) List(ctx context.Context, collection string) ([]database.Snapshot, error) {
	if err := f.check("list", collection); err != nil {
		return nil, err
	}
	return f.DocumentStore.List(ctx, collection)
}

func (f *faultyStore) Update(ctx context.Context, collection, id string, updates ...database.Update) error {
	if err := f.check("update", collection); err != nil {
		return err
	}
	return f.DocumentStore.Update(ctx, collection, id, updates...)
}

func (f *faultyStore) DeleteBatch(ctx context.Context, refs []database.Ref) error {
	if err := f.check("delete-batch", ""); err != nil {
		return err
	}
	return f.DocumentStore.DeleteBatch(ctx, refs)
}

// failOn returns a fail func matching one operation on one collection.
func failOn(op, collection string) func(string, string) error {
	return func(o, c string) error {
		if o == op && c == collection {
			return errInjected
		}
		return nil
	}
}

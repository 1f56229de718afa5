package feedback

import (
	"context"
	"errors"
	"testing"

	"brew-reviews/internal/database"
	"brew-reviews/internal/models"
	"brew-reviews/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWritesBothCopiesWithOneID(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "raw-beans", "P1")
	seedGlobalOrder(t, db, "o1", "U1", "P1")
	svc := newTestServices(t, db)

	review := addReview(t, svc, "P1", "U1", 4)

	sub := getReview(t, db, ReviewsPath("raw-beans", "P1"), review.ID)
	flat := getReview(t, db, database.ReviewsCollection, review.ID)
	assert.Equal(t, sub, flat)
	assert.Equal(t, "raw-beans", flat.ProductCollection)
	assert.True(t, flat.Verified)
	assert.Equal(t, 0, flat.Replies)
	assert.Empty(t, flat.Likes)
	assert.Empty(t, flat.Helpful)
}

func TestAddVisibleInProductListing(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	svc := newTestServices(t, db)

	review := addReview(t, svc, "P1", "U1", 5)

	reviews, err := svc.Reviews.FetchForProduct(context.Background(), "P1", models.SortNewest)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, review.ID, reviews[0].ID)
	assert.False(t, reviews[0].Verified)
}

func TestAddUnknownProductUsesFallbackCollection(t *testing.T) {
	db := database.NewMemoryStore()
	svc := newTestServices(t, db)

	review := addReview(t, svc, "ghost", "U1", 3)

	assert.Equal(t, "products", review.ProductCollection)
	assert.Equal(t, 1, db.Count(ReviewsPath("products", "ghost")))
}

func TestAddRequiresPurchaseWhenConfigured(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "raw-beans", "P1")
	seedGlobalOrder(t, db, "o1", "U2", "P1")
	svc := newTestServices(t, db, func(o *Options) { o.RequirePurchase = true })

	_, err := svc.Reviews.Add(context.Background(), newReview("P1", "U1", 5))
	assert.True(t, utils.IsErrorCode(err, utils.ErrPurchaseRequired))
	assert.Zero(t, db.Count(database.ReviewsCollection))

	review, err := svc.Reviews.Add(context.Background(), newReview("P1", "U2", 5))
	require.NoError(t, err)
	assert.True(t, review.Verified)
}

func TestAddValidation(t *testing.T) {
	svc := newTestServices(t, database.NewMemoryStore())
	ctx := context.Background()

	for _, rating := range []int{0, 6} {
		_, err := svc.Reviews.Add(ctx, newReview("P1", "U1", rating))
		var rangeErr *utils.RatingOutOfRangeError
		require.True(t, errors.As(err, &rangeErr), "rating %d", rating)
		assert.Equal(t, rating, rangeErr.Rating)
	}

	in := newReview("P1", "U1", 4)
	in.Content = "  too short "
	_, err := svc.Reviews.Add(ctx, in)
	var short *utils.ContentTooShortError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 9, short.Length)

	in = newReview("", "U1", 4)
	_, err = svc.Reviews.Add(ctx, in)
	var missing *utils.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "productId", missing.Field())

	assert.True(t, utils.IsErrorCode(utils.ToAppError(err, ""), utils.ErrInvalidInput))
}

func TestAddSurvivesMirrorFailure(t *testing.T) {
	mem := database.NewMemoryStore()
	seedProduct(t, mem, "brewed-drinks", "P1")
	db := &faultyStore{DocumentStore: mem, fail: failOn("create", database.ReviewsCollection)}
	svc := newTestServices(t, db)

	review, err := svc.Reviews.Add(context.Background(), newReview("P1", "U1", 4))
	require.NoError(t, err)
	assert.Zero(t, mem.Count(database.ReviewsCollection))

	// Reachable through the subcollection scan.
	found, err := svc.Reviews.Get(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, review.ID, found.ID)
}

func TestAddFailsWhenPrimaryWriteFails(t *testing.T) {
	mem := database.NewMemoryStore()
	seedProduct(t, mem, "brewed-drinks", "P1")
	db := &faultyStore{DocumentStore: mem, fail: failOn("create", ReviewsPath("brewed-drinks", "P1"))}
	svc := newTestServices(t, db)

	_, err := svc.Reviews.Add(context.Background(), newReview("P1", "U1", 4))
	assert.True(t, utils.IsErrorCode(err, utils.ErrDatabase))
	assert.Zero(t, mem.Count(database.ReviewsCollection))
}

func TestFetchForProductSortOrders(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	svc := newTestServices(t, db)
	ctx := context.Background()

	r1 := addReview(t, svc, "P1", "U1", 3)
	r2 := addReview(t, svc, "P1", "U2", 5)
	r3 := addReview(t, svc, "P1", "U3", 5)
	_, err := svc.Reactions.Toggle(ctx, models.ReviewEntity, r1.ID, "U9", models.ReactionHelpful)
	require.NoError(t, err)

	ids := func(order models.SortOrder) []string {
		reviews, err := svc.Reviews.FetchForProduct(ctx, "P1", order)
		require.NoError(t, err)
		out := make([]string, len(reviews))
		for i, r := range reviews {
			out[i] = r.ID
		}
		return out
	}

	assert.Equal(t, []string{r3.ID, r2.ID, r1.ID}, ids(models.SortNewest))
	assert.Equal(t, []string{r3.ID, r2.ID, r1.ID}, ids(""))
	assert.Equal(t, []string{r1.ID, r2.ID, r3.ID}, ids(models.SortOldest))
	assert.Equal(t, []string{r3.ID, r2.ID, r1.ID}, ids(models.SortRatingHigh))
	assert.Equal(t, []string{r1.ID, r3.ID, r2.ID}, ids(models.SortRatingLow))
	assert.Equal(t, r1.ID, ids(models.SortMostHelpful)[0])

	_, err = svc.Reviews.FetchForProduct(ctx, "P1", "loudest")
	var sortErr *utils.InvalidSortError
	assert.True(t, errors.As(err, &sortErr))
}

func TestFetchForProductEmpty(t *testing.T) {
	svc := newTestServices(t, database.NewMemoryStore())
	reviews, err := svc.Reviews.FetchForProduct(context.Background(), "nothing", models.SortNewest)
	require.NoError(t, err)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
}

func TestFetchForProductFallsBackToFlatCollection(t *testing.T) {
	mem := database.NewMemoryStore()
	seedProduct(t, mem, "brewed-drinks", "P1")
	writer := newTestServices(t, mem)
	review := addReview(t, writer, "P1", "U1", 4)

	db := &faultyStore{DocumentStore: mem, fail: failOn("list", ReviewsPath("brewed-drinks", "P1"))}
	reader := newTestServices(t, db)

	reviews, err := reader.Reviews.FetchForProduct(context.Background(), "P1", models.SortNewest)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, review.ID, reviews[0].ID)
}

func TestFetchForUserNewestFirst(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	seedProduct(t, db, "raw-beans", "P2")
	svc := newTestServices(t, db)

	first := addReview(t, svc, "P1", "U1", 4)
	addReview(t, svc, "P1", "U2", 2)
	second := addReview(t, svc, "P2", "U1", 5)

	reviews, err := svc.Reviews.FetchForUser(context.Background(), "U1")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, second.ID, reviews[0].ID)
	assert.Equal(t, first.ID, reviews[1].ID)
}

func TestUpdateMirrorsAndRecomputes(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	svc := newTestServices(t, db)
	ctx := context.Background()
	review := addReview(t, svc, "P1", "U1", 2)

	rating := 5
	content := "Second bag was much better roasted."
	updated, err := svc.Reviews.Update(ctx, review.ID, models.ReviewPatch{Rating: &rating, Content: &content})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.True(t, updated.UpdatedAt.After(review.UpdatedAt))

	for _, coll := range []string{database.ReviewsCollection, ReviewsPath("brewed-drinks", "P1")} {
		stored := getReview(t, db, coll, review.ID)
		assert.Equal(t, 5, stored.Rating, coll)
		assert.Equal(t, content, stored.Content, coll)
	}

	snap, err := db.Get(ctx, "brewed-drinks", "P1")
	require.NoError(t, err)
	var stored database.ProductRatingDocument
	require.NoError(t, snap.DataTo(&stored))
	assert.Equal(t, 5.0, stored.AverageRating)
}

func TestUpdateSameRatingRepairsStaleSummary(t *testing.T) {
	mem := database.NewMemoryStore()
	seedProduct(t, mem, "brewed-drinks", "P1")
	ctx := context.Background()

	// the summary write fails while the review is added
	db := &faultyStore{DocumentStore: mem, fail: failOn("update", "brewed-drinks")}
	review := addReview(t, newTestServices(t, db), "P1", "U1", 4)

	snap, err := mem.Get(ctx, "brewed-drinks", "P1")
	require.NoError(t, err)
	var stored database.ProductRatingDocument
	require.NoError(t, snap.DataTo(&stored))
	assert.Zero(t, stored.RatingsCount)

	rating := 4
	_, err = newTestServices(t, mem).Reviews.Update(ctx, review.ID, models.ReviewPatch{Rating: &rating})
	require.NoError(t, err)

	snap, err = mem.Get(ctx, "brewed-drinks", "P1")
	require.NoError(t, err)
	require.NoError(t, snap.DataTo(&stored))
	assert.Equal(t, 1, stored.RatingsCount)
	assert.Equal(t, 4.0, stored.AverageRating)
}

func TestUpdateValidationAndMissing(t *testing.T) {
	svc := newTestServices(t, database.NewMemoryStore())
	ctx := context.Background()

	bad := 9
	_, err := svc.Reviews.Update(ctx, "any", models.ReviewPatch{Rating: &bad})
	var rangeErr *utils.RatingOutOfRangeError
	assert.True(t, errors.As(err, &rangeErr))

	_, err = svc.Reviews.Update(ctx, "any", models.ReviewPatch{})
	var missing *utils.MissingFieldError
	assert.True(t, errors.As(err, &missing))

	ok := 3
	_, err = svc.Reviews.Update(ctx, "missing", models.ReviewPatch{Rating: &ok})
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestUpdateLegacyReviewFoundByScan(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "raw-beans", "P5")
	ctx := context.Background()
	legacy := &models.Review{ProductID: "P5", UserID: "U1", Rating: 4, Content: "Written before the flat copy existed."}
	require.NoError(t, db.Create(ctx, ReviewsPath("raw-beans", "P5"), "legacy-1", database.NewReviewDocument(legacy)))
	svc := newTestServices(t, db)

	title := "Still good"
	updated, err := svc.Reviews.Update(ctx, "legacy-1", models.ReviewPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "raw-beans", updated.ProductCollection)
	assert.Equal(t, "Still good", getReview(t, db, ReviewsPath("raw-beans", "P5"), "legacy-1").Title)
}

func TestDeleteCascadesAndRemovesBothCopies(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	svc := newTestServices(t, db)
	ctx := context.Background()

	keep := addReview(t, svc, "P1", "U2", 5)
	review := addReview(t, svc, "P1", "U1", 1)
	c1 := addComment(t, svc, review.ID, "U2", nil)
	addComment(t, svc, review.ID, "U3", &c1.ID)
	other := addComment(t, svc, keep.ID, "U1", nil)

	require.NoError(t, svc.Reviews.Delete(ctx, review.ID))

	_, err := svc.Reviews.Get(ctx, review.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
	assert.Equal(t, 1, db.Count(database.ReviewsCollection))
	assert.Equal(t, 1, db.Count(ReviewsPath("brewed-drinks", "P1")))
	assert.Equal(t, 1, db.Count(database.CommentsCollection))
	_, err = svc.Comments.Get(ctx, other.ID)
	assert.NoError(t, err)

	reviews, err := svc.Reviews.FetchForProduct(ctx, "P1", models.SortNewest)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, keep.ID, reviews[0].ID)

	summary, err := svc.Ratings.Summary(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, summary.AverageRating)
	assert.Equal(t, 1, summary.TotalReviews)
}

func TestDeleteMissingReview(t *testing.T) {
	svc := newTestServices(t, database.NewMemoryStore())
	err := svc.Reviews.Delete(context.Background(), "nope")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestDeleteBatchFailureLeavesReview(t *testing.T) {
	mem := database.NewMemoryStore()
	seedProduct(t, mem, "brewed-drinks", "P1")
	review := addReview(t, newTestServices(t, mem), "P1", "U1", 4)

	db := &faultyStore{DocumentStore: mem, fail: failOn("delete-batch", "")}
	err := newTestServices(t, db).Reviews.Delete(context.Background(), review.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrDatabase))
	assert.Equal(t, 1, mem.Count(database.ReviewsCollection))
}

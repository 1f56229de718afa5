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

func TestCommentAddIncrementsReplies(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	seedGlobalOrder(t, db, "o1", "U2", "P1")
	svc := newTestServices(t, db)
	review := addReview(t, svc, "P1", "U1", 4)

	c := addComment(t, svc, review.ID, "U2", nil)
	assert.Equal(t, review.ID, c.ReviewID)
	assert.Equal(t, "P1", c.ProductID)
	assert.True(t, c.Verified)
	assert.Nil(t, c.ParentCommentID)

	addComment(t, svc, review.ID, "U3", &c.ID)

	assert.Equal(t, 2, getReview(t, db, database.ReviewsCollection, review.ID).Replies)
	assert.Equal(t, 2, getReview(t, db, ReviewsPath("brewed-drinks", "P1"), review.ID).Replies)
}

func TestCommentAddRejections(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	svc := newTestServices(t, db)
	ctx := context.Background()
	r1 := addReview(t, svc, "P1", "U1", 4)
	r2 := addReview(t, svc, "P1", "U2", 4)
	onR2 := addComment(t, svc, r2.ID, "U3", nil)

	_, err := svc.Comments.Add(ctx, models.NewComment{ReviewID: r1.ID, Author: author("U3"), Content: "meh"})
	var short *utils.ContentTooShortError
	assert.True(t, errors.As(err, &short))

	_, err = svc.Comments.Add(ctx, models.NewComment{ReviewID: "missing", Author: author("U3"), Content: "Hello there"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	ghost := "ghost"
	_, err = svc.Comments.Add(ctx, models.NewComment{ReviewID: r1.ID, Author: author("U3"), Content: "Hello there", ParentCommentID: &ghost})
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	_, err = svc.Comments.Add(ctx, models.NewComment{ReviewID: r1.ID, Author: author("U3"), Content: "Hello there", ParentCommentID: &onR2.ID})
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	assert.Zero(t, getReview(t, db, database.ReviewsCollection, r1.ID).Replies)
}

func TestCommentAddSurfacesRepliesFailure(t *testing.T) {
	mem := database.NewMemoryStore()
	seedProduct(t, mem, "brewed-drinks", "P1")
	review := addReview(t, newTestServices(t, mem), "P1", "U1", 4)

	db := &faultyStore{DocumentStore: mem, fail: failOn("update", database.ReviewsCollection)}
	svc := newTestServices(t, db)
	_, err := svc.Comments.Add(context.Background(), models.NewComment{
		ReviewID: review.ID,
		Author:   author("U2"),
		Content:  "Hello there",
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrDatabase))

	// the comment is rolled back so the counter still matches
	assert.Zero(t, mem.Count(database.CommentsCollection))
	assert.Zero(t, getReview(t, mem, database.ReviewsCollection, review.ID).Replies)
}

func TestCommentDeleteSurvivesRepliesFailure(t *testing.T) {
	mem := database.NewMemoryStore()
	seedProduct(t, mem, "brewed-drinks", "P1")
	setup := newTestServices(t, mem)
	review := addReview(t, setup, "P1", "U1", 4)
	root := addComment(t, setup, review.ID, "U2", nil)
	addComment(t, setup, review.ID, "U3", &root.ID)

	db := &faultyStore{DocumentStore: mem, fail: failOn("update", database.ReviewsCollection)}
	removed, err := newTestServices(t, db).Comments.Delete(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Zero(t, mem.Count(database.CommentsCollection))
}

func TestCommentUpdate(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	svc := newTestServices(t, db)
	ctx := context.Background()
	review := addReview(t, svc, "P1", "U1", 4)
	c := addComment(t, svc, review.ID, "U2", nil)

	updated, err := svc.Comments.Update(ctx, c.ID, "  Changed my mind, too bitter.  ")
	require.NoError(t, err)
	assert.Equal(t, "Changed my mind, too bitter.", updated.Content)
	assert.True(t, updated.UpdatedAt.After(c.UpdatedAt))

	_, err = svc.Comments.Update(ctx, c.ID, "no")
	var short *utils.ContentTooShortError
	assert.True(t, errors.As(err, &short))

	_, err = svc.Comments.Update(ctx, "missing", "A perfectly fine edit")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestCommentDeleteCascadesToReplies(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	svc := newTestServices(t, db)
	ctx := context.Background()
	review := addReview(t, svc, "P1", "U1", 4)

	root := addComment(t, svc, review.ID, "U2", nil)
	child := addComment(t, svc, review.ID, "U3", &root.ID)
	addComment(t, svc, review.ID, "U4", &child.ID)
	sibling := addComment(t, svc, review.ID, "U5", nil)
	require.Equal(t, 4, getReview(t, db, database.ReviewsCollection, review.ID).Replies)

	removed, err := svc.Comments.Delete(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	remaining, err := svc.Comments.FetchForReview(ctx, review.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, sibling.ID, remaining[0].ID)
	assert.Equal(t, 1, getReview(t, db, database.ReviewsCollection, review.ID).Replies)
	assert.Equal(t, 1, getReview(t, db, ReviewsPath("brewed-drinks", "P1"), review.ID).Replies)

	_, err = svc.Comments.Delete(ctx, root.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestCommentDeleteAfterReviewGone(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	svc := newTestServices(t, db)
	ctx := context.Background()
	review := addReview(t, svc, "P1", "U1", 4)
	c := addComment(t, svc, review.ID, "U2", nil)

	// A review removed behind the store's back leaves an orphaned comment.
	require.NoError(t, db.DeleteBatch(ctx, []database.Ref{
		{Collection: database.ReviewsCollection, ID: review.ID},
		{Collection: ReviewsPath("brewed-drinks", "P1"), ID: review.ID},
	}))

	removed, err := svc.Comments.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Zero(t, db.Count(database.CommentsCollection))
}

func TestCommentFetchOrders(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	svc := newTestServices(t, db)
	ctx := context.Background()
	r1 := addReview(t, svc, "P1", "U1", 4)
	r2 := addReview(t, svc, "P1", "U2", 3)

	a := addComment(t, svc, r1.ID, "U9", nil)
	b := addComment(t, svc, r2.ID, "U8", nil)
	c := addComment(t, svc, r2.ID, "U9", nil)

	onReview, err := svc.Comments.FetchForReview(ctx, r2.ID)
	require.NoError(t, err)
	require.Len(t, onReview, 2)
	assert.Equal(t, b.ID, onReview[0].ID)
	assert.Equal(t, c.ID, onReview[1].ID)

	byUser, err := svc.Comments.FetchForUser(ctx, "U9")
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, c.ID, byUser[0].ID)
	assert.Equal(t, a.ID, byUser[1].ID)

	none, err := svc.Comments.FetchForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCommentThread(t *testing.T) {
	db := database.NewMemoryStore()
	seedProduct(t, db, "brewed-drinks", "P1")
	svc := newTestServices(t, db)
	review := addReview(t, svc, "P1", "U1", 4)

	first := addComment(t, svc, review.ID, "U2", nil)
	reply := addComment(t, svc, review.ID, "U3", &first.ID)
	nested := addComment(t, svc, review.ID, "U4", &reply.ID)
	second := addComment(t, svc, review.ID, "U5", nil)
	reply2 := addComment(t, svc, review.ID, "U6", &first.ID)

	threads, err := svc.Comments.Thread(context.Background(), review.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, first.ID, threads[0].ID)
	assert.Equal(t, second.ID, threads[1].ID)
	assert.Empty(t, threads[1].Replies)

	require.Len(t, threads[0].Replies, 2)
	assert.Equal(t, reply.ID, threads[0].Replies[0].ID)
	assert.Equal(t, reply2.ID, threads[0].Replies[1].ID)
	require.Len(t, threads[0].Replies[0].Replies, 1)
	assert.Equal(t, nested.ID, threads[0].Replies[0].Replies[0].ID)
}

func TestBuildThreadsOrphansBecomeRoots(t *testing.T) {
	gone := "gone"
	self := "c2"
	comments := []*models.Comment{
		{ID: "c1"},
		{ID: "c2", ParentCommentID: &self},
		{ID: "c3", ParentCommentID: &gone},
	}

	threads := buildThreads(comments)
	require.Len(t, threads, 3)
	for i, id := range []string{"c1", "c2", "c3"} {
		assert.Equal(t, id, threads[i].ID)
	}
	assert.Empty(t, buildThreads(nil))
}

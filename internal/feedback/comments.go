package feedback

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"brew-reviews/internal/database"
	"brew-reviews/internal/models"
	"brew-reviews/internal/utils"
)

// CommentStore manages comments in the flat comments collection and keeps the
// owning review's replies counter in step.
type CommentStore struct {
	db        database.DocumentStore
	reviews   *ReviewStore
	purchases *PurchaseVerifier
	env
}

func (s *CommentStore) Add(ctx context.Context, in models.NewComment) (*models.Comment, error) {
	if err := utils.RequireField("reviewId", in.ReviewID); err != nil {
		return nil, err
	}
	if err := utils.RequireField("userId", in.Author.UserID); err != nil {
		return nil, err
	}
	if err := utils.ValidateContent("content", in.Content, utils.MinCommentContentLength); err != nil {
		return nil, err
	}

	loc, err := s.reviews.resolve(ctx, in.ReviewID)
	if err != nil {
		return nil, err
	}

	var parentID *string
	if in.ParentCommentID != nil && *in.ParentCommentID != "" {
		parent, err := s.Get(ctx, *in.ParentCommentID)
		if err != nil {
			return nil, err
		}
		if parent.ReviewID != in.ReviewID {
			return nil, utils.NewAppError(utils.ErrInvalidInput, "Parent comment belongs to a different review", nil)
		}
		parentID = &parent.ID
	}

	productID := loc.review.ProductID
	now := s.now()
	comment := &models.Comment{
		ID:              s.newID(),
		ReviewID:        in.ReviewID,
		ProductID:       productID,
		UserID:          in.Author.UserID,
		UserName:        in.Author.UserName,
		UserEmail:       in.Author.UserEmail,
		UserAvatar:      in.Author.UserAvatar,
		Content:         strings.TrimSpace(in.Content),
		Likes:           []string{},
		Dislikes:        []string{},
		ParentCommentID: parentID,
		Verified:        s.purchases.HasPurchased(ctx, in.Author.UserID, productID),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.db.Create(ctx, database.CommentsCollection, comment.ID, database.NewCommentDocument(comment)); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to save comment", err)
	}
	if err := s.reviews.adjustReplies(ctx, loc, 1); err != nil {
		// roll back so live comments keep matching the counter
		if delErr := s.db.Delete(ctx, database.CommentsCollection, comment.ID); delErr != nil {
			s.partialWrite("comment.add.rollback", delErr, slog.String("comment_id", comment.ID))
		}
		return nil, err
	}

	s.logger.Info("comment created",
		slog.String("comment_id", comment.ID),
		slog.String("review_id", comment.ReviewID),
	)
	return comment, nil
}

func (s *CommentStore) Get(ctx context.Context, id string) (*models.Comment, error) {
	snap, err := s.db.Get(ctx, database.CommentsCollection, id)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			return nil, utils.NewNotFoundError("comment", id)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to get comment", err)
	}
	comment, err := database.DecodeComment(snap)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to decode comment", err)
	}
	return comment, nil
}

// Update replaces the comment's content.
func (s *CommentStore) Update(ctx context.Context, id, content string) (*models.Comment, error) {
	if err := utils.ValidateContent("content", content, utils.MinCommentContentLength); err != nil {
		return nil, err
	}
	err := s.db.Update(ctx, database.CommentsCollection, id,
		database.Set(database.FieldContent, strings.TrimSpace(content)),
		database.Set(database.FieldUpdatedAt, s.now()),
	)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			return nil, utils.NewNotFoundError("comment", id)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to update comment", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a comment together with every reply beneath it and lowers the
// review's replies counter by the number of comments removed, which it returns.
func (s *CommentStore) Delete(ctx context.Context, id string) (int, error) {
	comment, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	descendants, err := s.descendants(ctx, id)
	if err != nil {
		return 0, err
	}

	refs := make([]database.Ref, 0, len(descendants)+1)
	refs = append(refs, database.Ref{Collection: database.CommentsCollection, ID: id})
	for _, d := range descendants {
		refs = append(refs, database.Ref{Collection: database.CommentsCollection, ID: d})
	}
	if err := s.db.DeleteBatch(ctx, refs); err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "Failed to delete comment", err)
	}

	removed := len(refs)
	loc, err := s.reviews.resolve(ctx, comment.ReviewID)
	if err != nil {
		s.partialWrite("comment.delete.replies", err, slog.String("review_id", comment.ReviewID))
		return removed, nil
	}
	if err := s.reviews.adjustReplies(ctx, loc, -removed); err != nil {
		s.partialWrite("comment.delete.replies", err, slog.String("review_id", comment.ReviewID))
	}
	return removed, nil
}

// descendants walks replies breadth first and returns every comment id below id.
func (s *CommentStore) descendants(ctx context.Context, id string) ([]string, error) {
	var out []string
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		snaps, err := s.db.Query(ctx, database.CommentsCollection, database.FieldParentCommentID, parent)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "Failed to load replies", err)
		}
		for _, snap := range snaps {
			if seen[snap.ID()] {
				continue
			}
			seen[snap.ID()] = true
			out = append(out, snap.ID())
			queue = append(queue, snap.ID())
		}
	}
	return out, nil
}

// FetchForReview lists a review's comments oldest first.
func (s *CommentStore) FetchForReview(ctx context.Context, reviewID string) ([]*models.Comment, error) {
	snaps, err := s.db.Query(ctx, database.CommentsCollection, database.FieldReviewID, reviewID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch comments", err)
	}
	comments := s.decodeAll(snaps)
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// FetchForUser lists a user's comments newest first.
func (s *CommentStore) FetchForUser(ctx context.Context, userID string) ([]*models.Comment, error) {
	snaps, err := s.db.Query(ctx, database.CommentsCollection, database.FieldUserID, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch comments", err)
	}
	comments := s.decodeAll(snaps)
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, nil
}

// Thread returns the review's comments nested under their parents.
func (s *CommentStore) Thread(ctx context.Context, reviewID string) ([]*models.CommentThread, error) {
	comments, err := s.FetchForReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	return buildThreads(comments), nil
}

func (s *CommentStore) decodeAll(snaps []database.Snapshot) []*models.Comment {
	comments := make([]*models.Comment, 0, len(snaps))
	for _, snap := range snaps {
		c, err := database.DecodeComment(snap)
		if err != nil {
			s.logger.Warn("skipping undecodable comment",
				slog.String("comment_id", snap.ID()),
				slog.String("error", err.Error()),
			)
			continue
		}
		comments = append(comments, c)
	}
	return comments
}

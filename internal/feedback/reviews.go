package feedback

import (
	"context"
	"log/slog"
	"strings"

	"brew-reviews/internal/database"
	"brew-reviews/internal/models"
	"brew-reviews/internal/utils"
)

type ratingRecomputer interface {
	Recompute(ctx context.Context, productID string) (*models.ReviewSummary, error)
}

// ReviewStore keeps each review twice: under its product's reviews subcollection,
// which listings read, and in the flat reviews collection, which id lookups read.
type ReviewStore struct {
	db              database.DocumentStore
	locator         *ProductLocator
	purchases       *PurchaseVerifier
	ratings         ratingRecomputer
	requirePurchase bool
	env
}

// reviewLocation is a resolved review plus where its two copies live.
type reviewLocation struct {
	review  *models.Review
	primary string // collection the review was read from
	mirror  string // collection of the other copy
}

// Add validates and stores a new review and returns it with its id.
func (s *ReviewStore) Add(ctx context.Context, in models.NewReview) (*models.Review, error) {
	if err := validateNewReview(in); err != nil {
		return nil, err
	}

	verified := s.purchases.HasPurchased(ctx, in.Author.UserID, in.ProductID)
	if s.requirePurchase && !verified {
		return nil, utils.NewAppError(utils.ErrPurchaseRequired, "Only customers who bought this product can review it", nil)
	}

	collection := s.locator.Locate(ctx, in.ProductID)
	now := s.now()
	review := &models.Review{
		ID:                s.newID(),
		ProductID:         in.ProductID,
		ProductCollection: collection,
		UserID:            in.Author.UserID,
		UserName:          in.Author.UserName,
		UserEmail:         in.Author.UserEmail,
		UserAvatar:        in.Author.UserAvatar,
		Rating:            in.Rating,
		Title:             strings.TrimSpace(in.Title),
		Content:           strings.TrimSpace(in.Content),
		Images:            orEmpty(in.Images),
		Videos:            orEmpty(in.Videos),
		Gifs:              orEmpty(in.Gifs),
		Likes:             []string{},
		Dislikes:          []string{},
		Helpful:           []string{},
		Replies:           0,
		Verified:          verified,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	doc := database.NewReviewDocument(review)

	if err := s.db.Create(ctx, ReviewsPath(collection, in.ProductID), review.ID, doc); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to save review", err)
	}
	if err := s.db.Create(ctx, database.ReviewsCollection, review.ID, doc); err != nil {
		s.partialWrite("review.add.mirror", err, slog.String("review_id", review.ID))
	}

	s.logger.Info("review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.String("collection", collection),
		slog.Bool("verified", verified),
	)
	s.recompute(ctx, review.ProductID)
	return review, nil
}

// Get returns a review by id from whichever copy can be found.
func (s *ReviewStore) Get(ctx context.Context, id string) (*models.Review, error) {
	loc, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return loc.review, nil
}

// Update applies an author's patch to the review and mirrors it to the other copy.
func (s *ReviewStore) Update(ctx context.Context, id string, patch models.ReviewPatch) (*models.Review, error) {
	if err := validateReviewPatch(patch); err != nil {
		return nil, err
	}
	loc, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	review := loc.review
	now := s.now()
	updates := []database.Update{database.Set(database.FieldUpdatedAt, now)}
	if patch.Rating != nil {
		updates = append(updates, database.Set(database.FieldRating, *patch.Rating))
		review.Rating = *patch.Rating
	}
	if patch.Title != nil {
		review.Title = strings.TrimSpace(*patch.Title)
		updates = append(updates, database.Set(database.FieldTitle, review.Title))
	}
	if patch.Content != nil {
		review.Content = strings.TrimSpace(*patch.Content)
		updates = append(updates, database.Set(database.FieldContent, review.Content))
	}
	if patch.Images != nil {
		review.Images = orEmpty(*patch.Images)
		updates = append(updates, database.Set(database.FieldImages, review.Images))
	}
	if patch.Videos != nil {
		review.Videos = orEmpty(*patch.Videos)
		updates = append(updates, database.Set(database.FieldVideos, review.Videos))
	}
	if patch.Gifs != nil {
		review.Gifs = orEmpty(*patch.Gifs)
		updates = append(updates, database.Set(database.FieldGifs, review.Gifs))
	}
	review.UpdatedAt = now

	if err := s.apply(ctx, loc, "review.update", updates...); err != nil {
		return nil, err
	}
	if patch.Rating != nil {
		s.recompute(ctx, review.ProductID)
	}
	return review, nil
}

// Delete removes the review, both of its copies and every comment on it in one batch.
func (s *ReviewStore) Delete(ctx context.Context, id string) error {
	loc, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}

	comments, err := s.db.Query(ctx, database.CommentsCollection, database.FieldReviewID, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to load review comments", err)
	}

	refs := make([]database.Ref, 0, len(comments)+2)
	for _, c := range comments {
		refs = append(refs, database.Ref{Collection: database.CommentsCollection, ID: c.ID()})
	}
	refs = append(refs, database.Ref{Collection: loc.primary, ID: id})
	if loc.mirror != "" {
		refs = append(refs, database.Ref{Collection: loc.mirror, ID: id})
	}

	if err := s.db.DeleteBatch(ctx, refs); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to delete review", err)
	}

	s.logger.Info("review deleted",
		slog.String("review_id", id),
		slog.String("product_id", loc.review.ProductID),
		slog.Int("comments", len(comments)),
	)
	s.recompute(ctx, loc.review.ProductID)
	return nil
}

// FetchForProduct lists a product's reviews from its subcollection, falling back to
// the flat collection when the subcollection cannot be read.
func (s *ReviewStore) FetchForProduct(ctx context.Context, productID string, order models.SortOrder) ([]*models.Review, error) {
	if order == "" {
		order = models.SortNewest
	}
	if !order.Valid() {
		return nil, &utils.InvalidSortError{Value: string(order)}
	}

	collection := s.locator.Locate(ctx, productID)
	snaps, err := s.db.List(ctx, ReviewsPath(collection, productID))
	if err != nil {
		s.logger.Warn("review subcollection read failed, using flat collection",
			slog.String("product_id", productID),
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
		snaps, err = s.db.Query(ctx, database.ReviewsCollection, database.FieldProductID, productID)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch reviews", err)
		}
	}

	reviews := s.decodeAll(snaps)
	sortReviews(reviews, order)
	return reviews, nil
}

// FetchForUser lists a user's reviews, newest first.
func (s *ReviewStore) FetchForUser(ctx context.Context, userID string) ([]*models.Review, error) {
	snaps, err := s.db.Query(ctx, database.ReviewsCollection, database.FieldUserID, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to fetch user reviews", err)
	}
	reviews := s.decodeAll(snaps)
	sortReviews(reviews, models.SortNewest)
	return reviews, nil
}

func (s *ReviewStore) decodeAll(snaps []database.Snapshot) []*models.Review {
	reviews := make([]*models.Review, 0, len(snaps))
	for _, snap := range snaps {
		review, err := database.DecodeReview(snap)
		if err != nil {
			s.logger.Warn("skipping undecodable review",
				slog.String("review_id", snap.ID()),
				slog.String("error", err.Error()),
			)
			continue
		}
		reviews = append(reviews, review)
	}
	return reviews
}

// resolve finds a review by id: flat collection first, then a scan over every
// product's reviews subcollection for records whose flat copy is missing.
func (s *ReviewStore) resolve(ctx context.Context, id string) (*reviewLocation, error) {
	snap, err := s.db.Get(ctx, database.ReviewsCollection, id)
	switch {
	case err == nil:
		review, err := database.DecodeReview(snap)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "Failed to decode review", err)
		}
		collection := review.ProductCollection
		if collection == "" {
			collection = s.locator.Locate(ctx, review.ProductID)
		}
		return &reviewLocation{
			review:  review,
			primary: database.ReviewsCollection,
			mirror:  ReviewsPath(collection, review.ProductID),
		}, nil
	case !utils.IsErrorCode(err, utils.ErrNotFound):
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to read review", err)
	}

	return s.scan(ctx, id)
}

// scan is O(products). Reviews written since productCollection was recorded always
// have a flat copy, so this only runs for legacy data or after a failed mirror write.
func (s *ReviewStore) scan(ctx context.Context, id string) (*reviewLocation, error) {
	for _, collection := range s.locator.Collections() {
		products, err := s.db.List(ctx, collection)
		if err != nil {
			s.logger.Debug("product scan failed",
				slog.String("collection", collection),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, product := range products {
			path := ReviewsPath(collection, product.ID())
			snap, err := s.db.Get(ctx, path, id)
			if err != nil {
				continue
			}
			review, err := database.DecodeReview(snap)
			if err != nil {
				return nil, utils.NewAppError(utils.ErrDatabase, "Failed to decode review", err)
			}
			if review.ProductCollection == "" {
				review.ProductCollection = collection
			}
			return &reviewLocation{review: review, primary: path, mirror: database.ReviewsCollection}, nil
		}
	}
	return nil, utils.NewNotFoundError("review", id)
}

// apply writes updates to the copy the review was resolved from, then best-effort to
// the other copy.
func (s *ReviewStore) apply(ctx context.Context, loc *reviewLocation, operation string, updates ...database.Update) error {
	if err := s.db.Update(ctx, loc.primary, loc.review.ID, updates...); err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			return utils.NewNotFoundError("review", loc.review.ID)
		}
		return utils.NewAppError(utils.ErrDatabase, "Failed to update review", err)
	}
	if loc.mirror != "" {
		if err := s.db.Update(ctx, loc.mirror, loc.review.ID, updates...); err != nil {
			s.partialWrite(operation+".mirror", err,
				slog.String("review_id", loc.review.ID),
				slog.String("collection", loc.mirror),
			)
		}
	}
	return nil
}

// adjustReplies moves the review's comment counter by delta using an atomic increment.
func (s *ReviewStore) adjustReplies(ctx context.Context, loc *reviewLocation, delta int) error {
	if err := s.apply(ctx, loc, "review.replies", database.Increment(database.FieldReplies, delta)); err != nil {
		return err
	}
	loc.review.Replies += delta
	return nil
}

func (s *ReviewStore) recompute(ctx context.Context, productID string) {
	if s.ratings == nil {
		return
	}
	if _, err := s.ratings.Recompute(ctx, productID); err != nil {
		s.partialWrite("rating.recompute", err, slog.String("product_id", productID))
	}
}

func validateNewReview(in models.NewReview) error {
	if err := utils.RequireField("productId", in.ProductID); err != nil {
		return err
	}
	if err := utils.RequireField("userId", in.Author.UserID); err != nil {
		return err
	}
	if err := utils.ValidateRating(in.Rating); err != nil {
		return err
	}
	return utils.ValidateContent("content", in.Content, utils.MinReviewContentLength)
}

func validateReviewPatch(p models.ReviewPatch) error {
	if p.Empty() {
		return &utils.MissingFieldError{Name: "update"}
	}
	if p.Rating != nil {
		if err := utils.ValidateRating(*p.Rating); err != nil {
			return err
		}
	}
	if p.Content != nil {
		return utils.ValidateContent("content", *p.Content, utils.MinReviewContentLength)
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

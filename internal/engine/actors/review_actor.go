package actors

import (
	"log/slog"
	"time"

	"brew-reviews/internal/feedback"
	"brew-reviews/internal/models"
	"brew-reviews/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Message types for ReviewActor
type (
	CreateReviewMsg struct {
		Review models.NewReview
	}

	UpdateReviewMsg struct {
		ReviewID    string
		RequesterID string
		Patch       models.ReviewPatch
	}

	DeleteReviewMsg struct {
		ReviewID    string
		RequesterID string
	}

	GetReviewMsg struct {
		ReviewID string
	}

	GetProductReviewsMsg struct {
		ProductID string
		Sort      models.SortOrder
	}

	GetUserReviewsMsg struct {
		UserID string
	}

	GetSummaryMsg struct {
		ProductID string
	}

	RecomputeSummaryMsg struct {
		ProductID string
	}

	CheckPurchaseMsg struct {
		UserID    string
		ProductID string
	}
)

// ReviewActor serves review reads and writes, rating summaries and purchase checks.
type ReviewActor struct {
	base
	reviews   *feedback.ReviewStore
	ratings   *feedback.RatingAggregator
	purchases *feedback.PurchaseVerifier
}

func NewReviewActor(deps Deps) actor.Actor {
	return &ReviewActor{
		base:      newBase("review", deps),
		reviews:   deps.Services.Reviews,
		ratings:   deps.Services.Ratings,
		purchases: deps.Services.Purchases,
	}
}

func (a *ReviewActor) Receive(context actor.Context) {
	if a.lifecycle(context) {
		return
	}
	switch msg := context.Message().(type) {
	case *CreateReviewMsg:
		a.handleCreateReview(context, msg)
	case *UpdateReviewMsg:
		a.handleUpdateReview(context, msg)
	case *DeleteReviewMsg:
		a.handleDeleteReview(context, msg)
	case *GetReviewMsg:
		a.handleGetReview(context, msg)
	case *GetProductReviewsMsg:
		a.handleGetProductReviews(context, msg)
	case *GetUserReviewsMsg:
		a.handleGetUserReviews(context, msg)
	case *GetSummaryMsg:
		a.handleGetSummary(context, msg)
	case *RecomputeSummaryMsg:
		a.handleRecomputeSummary(context, msg)
	case *CheckPurchaseMsg:
		a.handleCheckPurchase(context, msg)
	default:
		a.unknown(msg)
	}
}

func (a *ReviewActor) handleCreateReview(context actor.Context, msg *CreateReviewMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	review, err := a.reviews.Add(ctx, msg.Review)
	a.respond(context, "create_review", start, review, err)
}

// authorize checks that requesterID wrote the review.
func (a *ReviewActor) authorize(review *models.Review, requesterID string) error {
	if review.UserID != requesterID {
		a.logger.Info("review change refused",
			slog.String("review_id", review.ID),
			slog.String("requester", requesterID),
		)
		return utils.NewForbiddenError("only the author can change this review")
	}
	return nil
}

func (a *ReviewActor) handleUpdateReview(context actor.Context, msg *UpdateReviewMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	review, err := a.reviews.Get(ctx, msg.ReviewID)
	if err == nil {
		err = a.authorize(review, msg.RequesterID)
	}
	if err == nil {
		review, err = a.reviews.Update(ctx, msg.ReviewID, msg.Patch)
	}
	a.respond(context, "update_review", start, review, err)
}

func (a *ReviewActor) handleDeleteReview(context actor.Context, msg *DeleteReviewMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	review, err := a.reviews.Get(ctx, msg.ReviewID)
	if err == nil {
		err = a.authorize(review, msg.RequesterID)
	}
	if err == nil {
		err = a.reviews.Delete(ctx, msg.ReviewID)
	}
	a.respond(context, "delete_review", start,
		&models.StatusResponse{Success: true, Message: "Review deleted successfully"}, err)
}

func (a *ReviewActor) handleGetReview(context actor.Context, msg *GetReviewMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	review, err := a.reviews.Get(ctx, msg.ReviewID)
	a.respond(context, "get_review", start, review, err)
}

func (a *ReviewActor) handleGetProductReviews(context actor.Context, msg *GetProductReviewsMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	reviews, err := a.reviews.FetchForProduct(ctx, msg.ProductID, msg.Sort)
	a.respond(context, "get_product_reviews", start, reviews, err)
}

func (a *ReviewActor) handleGetUserReviews(context actor.Context, msg *GetUserReviewsMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	reviews, err := a.reviews.FetchForUser(ctx, msg.UserID)
	a.respond(context, "get_user_reviews", start, reviews, err)
}

func (a *ReviewActor) handleGetSummary(context actor.Context, msg *GetSummaryMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	summary, err := a.ratings.Summary(ctx, msg.ProductID)
	a.respond(context, "get_summary", start, summary, err)
}

func (a *ReviewActor) handleRecomputeSummary(context actor.Context, msg *RecomputeSummaryMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	summary, err := a.ratings.Recompute(ctx, msg.ProductID)
	a.respond(context, "recompute_summary", start, summary, err)
}

func (a *ReviewActor) handleCheckPurchase(context actor.Context, msg *CheckPurchaseMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	status := &models.PurchaseStatus{
		UserID:    msg.UserID,
		ProductID: msg.ProductID,
		Purchased: a.purchases.HasPurchased(ctx, msg.UserID, msg.ProductID),
	}
	a.respond(context, "check_purchase", start, status, nil)
}

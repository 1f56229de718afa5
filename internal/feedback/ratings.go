package feedback

import (
	"context"
	"log/slog"
	"math"

	"brew-reviews/internal/database"
	"brew-reviews/internal/models"
	"brew-reviews/internal/utils"
)

// RatingAggregator derives a product's rating summary from its reviews and stores it
// on the product document.
type RatingAggregator struct {
	db      database.DocumentStore
	locator *ProductLocator
	reviews *ReviewStore
	env
}

// Recompute writes the fresh summary to the first product collection, in priority
// order, that holds the product. It returns NOT_FOUND if none does.
func (a *RatingAggregator) Recompute(ctx context.Context, productID string) (*models.ReviewSummary, error) {
	summary, err := a.Summary(ctx, productID)
	if err != nil {
		return nil, err
	}
	doc := database.NewProductRatingDocument(summary, a.now())

	var lastErr error
	for _, collection := range a.locator.Collections() {
		found, err := a.db.Exists(ctx, collection, productID)
		if err != nil || !found {
			continue
		}
		if err := a.db.Update(ctx, collection, productID, doc.Updates()...); err != nil {
			lastErr = err
			a.logger.Warn("rating write failed",
				slog.String("product_id", productID),
				slog.String("collection", collection),
				slog.String("error", err.Error()),
			)
			continue
		}
		a.logger.Debug("rating updated",
			slog.String("product_id", productID),
			slog.String("collection", collection),
			slog.Float64("average", summary.AverageRating),
			slog.Int("total", summary.TotalReviews),
		)
		return summary, nil
	}

	if lastErr != nil {
		return summary, utils.NewAppError(utils.ErrDatabase, "Failed to store rating summary", lastErr)
	}
	return summary, utils.NewNotFoundError("product", productID)
}

// Summary computes the product's rating summary without storing it.
func (a *RatingAggregator) Summary(ctx context.Context, productID string) (*models.ReviewSummary, error) {
	reviews, err := a.reviews.FetchForProduct(ctx, productID, models.SortNewest)
	if err != nil {
		return nil, err
	}
	return Summarize(productID, reviews), nil
}

// Summarize computes average, histogram and verified count. Ratings outside 1..5
// are ignored so the histogram always sums to the total.
func Summarize(productID string, reviews []*models.Review) *models.ReviewSummary {
	summary := &models.ReviewSummary{
		ProductID:          productID,
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	sum := 0
	for _, r := range reviews {
		if r.Rating < utils.MinRating || r.Rating > utils.MaxRating {
			continue
		}
		summary.RatingDistribution[r.Rating]++
		summary.TotalReviews++
		sum += r.Rating
		if r.Verified {
			summary.VerifiedReviews++
		}
	}

	if summary.TotalReviews > 0 {
		summary.AverageRating = roundHalfUp(float64(sum)/float64(summary.TotalReviews), 1)
	}
	return summary
}

func roundHalfUp(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Floor(v*scale+0.5) / scale
}

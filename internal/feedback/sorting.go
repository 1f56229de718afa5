package feedback

import (
	"sort"

	"brew-reviews/internal/models"
)

// sortReviews orders reviews in place. Rating orders break ties newest first;
// most_helpful keeps the incoming order for ties.
func sortReviews(reviews []*models.Review, order models.SortOrder) {
	newer := func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) }

	switch order {
	case models.SortOldest:
		sort.SliceStable(reviews, func(i, j int) bool {
			return reviews[i].CreatedAt.Before(reviews[j].CreatedAt)
		})
	case models.SortRatingHigh:
		sort.SliceStable(reviews, func(i, j int) bool {
			if reviews[i].Rating != reviews[j].Rating {
				return reviews[i].Rating > reviews[j].Rating
			}
			return newer(i, j)
		})
	case models.SortRatingLow:
		sort.SliceStable(reviews, func(i, j int) bool {
			if reviews[i].Rating != reviews[j].Rating {
				return reviews[i].Rating < reviews[j].Rating
			}
			return newer(i, j)
		})
	case models.SortMostHelpful:
		sort.SliceStable(reviews, func(i, j int) bool {
			return len(reviews[i].Helpful) > len(reviews[j].Helpful)
		})
	default:
		sort.SliceStable(reviews, newer)
	}
}

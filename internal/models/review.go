package models

import "time"

// Author is the snapshot of the writer taken when a review or comment is created.
type Author struct {
	UserID     string  `json:"userId"`
	UserName   string  `json:"userName"`
	UserEmail  string  `json:"userEmail"`
	UserAvatar *string `json:"userAvatar,omitempty"`
}

type Review struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"productId"`
	ProductCollection string    `json:"productCollection,omitempty"`
	UserID            string    `json:"userId"`
	UserName          string    `json:"userName"`
	UserEmail         string    `json:"userEmail"`
	UserAvatar        *string   `json:"userAvatar,omitempty"`
	Rating            int       `json:"rating"`
	Title             string    `json:"title,omitempty"`
	Content           string    `json:"content"`
	Images            []string  `json:"images"`
	Videos            []string  `json:"videos"`
	Gifs              []string  `json:"gifs"`
	Likes             []string  `json:"likes"`
	Dislikes          []string  `json:"dislikes"`
	Helpful           []string  `json:"helpful"`
	Replies           int       `json:"replies"`
	Verified          bool      `json:"verified"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NewReview is the caller-supplied part of a review.
type NewReview struct {
	ProductID string
	Author    Author
	Rating    int
	Title     string
	Content   string
	Images    []string
	Videos    []string
	Gifs      []string
}

// ReviewPatch holds the fields an author may change after creation. Nil means unchanged.
type ReviewPatch struct {
	Rating  *int      `json:"rating,omitempty"`
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Images  *[]string `json:"images,omitempty"`
	Videos  *[]string `json:"videos,omitempty"`
	Gifs    *[]string `json:"gifs,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ReviewPatch) Empty() bool {
	return p.Rating == nil && p.Title == nil && p.Content == nil &&
		p.Images == nil && p.Videos == nil && p.Gifs == nil
}

// ReviewSummary is the per-product rating aggregate.
type ReviewSummary struct {
	ProductID          string      `json:"productId"`
	AverageRating      float64     `json:"averageRating"`
	TotalReviews       int         `json:"totalReviews"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
	VerifiedReviews    int         `json:"verifiedReviews"`
}

// SortOrder selects the ordering applied to product review listings.
type SortOrder string

const (
	SortNewest      SortOrder = "newest"
	SortOldest      SortOrder = "oldest"
	SortRatingHigh  SortOrder = "rating_high"
	SortRatingLow   SortOrder = "rating_low"
	SortMostHelpful SortOrder = "most_helpful"
)

// Valid reports whether s is one of the known sort orders.
func (s SortOrder) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortRatingHigh, SortRatingLow, SortMostHelpful:
		return true
	}
	return false
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PurchaseStatus answers whether a user may leave a verified review.
type PurchaseStatus struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Purchased bool   `json:"purchased"`
}

package database

import (
	"strconv"
	"time"

	"brew-reviews/internal/models"
)

// Field names shared by the document structs and partial updates.
const (
	FieldProductID       = "productId"
	FieldUserID          = "userId"
	FieldReviewID        = "reviewId"
	FieldParentCommentID = "parentCommentId"
	FieldRating          = "rating"
	FieldTitle           = "title"
	FieldContent         = "content"
	FieldImages          = "images"
	FieldVideos          = "videos"
	FieldGifs            = "gifs"
	FieldLikes           = "likes"
	FieldDislikes        = "dislikes"
	FieldHelpful         = "helpful"
	FieldReplies         = "replies"
	FieldUpdatedAt       = "updatedAt"
)

// ReviewDocument represents a review in either the product subcollection or the flat
// reviews collection. Both copies share one id.
type ReviewDocument struct {
	ID                string    `bson:"_id,omitempty" firestore:"-"`
	ProductID         string    `bson:"productId" firestore:"productId"`
	ProductCollection string    `bson:"productCollection,omitempty" firestore:"productCollection,omitempty"`
	UserID            string    `bson:"userId" firestore:"userId"`
	UserName          string    `bson:"userName" firestore:"userName"`
	UserEmail         string    `bson:"userEmail" firestore:"userEmail"`
	UserAvatar        *string   `bson:"userAvatar,omitempty" firestore:"userAvatar,omitempty"`
	Rating            int       `bson:"rating" firestore:"rating"`
	Title             string    `bson:"title,omitempty" firestore:"title,omitempty"`
	Content           string    `bson:"content" firestore:"content"`
	Images            []string  `bson:"images" firestore:"images"`
	Videos            []string  `bson:"videos" firestore:"videos"`
	Gifs              []string  `bson:"gifs" firestore:"gifs"`
	Likes             []string  `bson:"likes" firestore:"likes"`
	Dislikes          []string  `bson:"dislikes" firestore:"dislikes"`
	Helpful           []string  `bson:"helpful" firestore:"helpful"`
	Replies           int       `bson:"replies" firestore:"replies"`
	Verified          bool      `bson:"verified" firestore:"verified"`
	CreatedAt         time.Time `bson:"createdAt" firestore:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" firestore:"updatedAt"`
}

// CommentDocument represents a comment in the flat comments collection
type CommentDocument struct {
	ID              string    `bson:"_id,omitempty" firestore:"-"`
	ReviewID        string    `bson:"reviewId" firestore:"reviewId"`
	ProductID       string    `bson:"productId" firestore:"productId"`
	UserID          string    `bson:"userId" firestore:"userId"`
	UserName        string    `bson:"userName" firestore:"userName"`
	UserEmail       string    `bson:"userEmail" firestore:"userEmail"`
	UserAvatar      *string   `bson:"userAvatar,omitempty" firestore:"userAvatar,omitempty"`
	Content         string    `bson:"content" firestore:"content"`
	Likes           []string  `bson:"likes" firestore:"likes"`
	Dislikes        []string  `bson:"dislikes" firestore:"dislikes"`
	ParentCommentID *string   `bson:"parentCommentId" firestore:"parentCommentId"`
	Verified        bool      `bson:"verified" firestore:"verified"`
	CreatedAt       time.Time `bson:"createdAt" firestore:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" firestore:"updatedAt"`
}

// OrderDocument is the part of an order the purchase check reads. Orders are owned by
// the checkout system; unknown fields are ignored.
type OrderDocument struct {
	ID     string              `bson:"_id,omitempty" firestore:"-"`
	UserID string              `bson:"userId" firestore:"userId"`
	Items  []OrderItemDocument `bson:"items" firestore:"items"`
}

// OrderItemDocument is one order line. Older orders carry the product under "id".
type OrderItemDocument struct {
	ProductID string `bson:"productId,omitempty" firestore:"productId,omitempty"`
	ID        string `bson:"id,omitempty" firestore:"id,omitempty"`
}

// Contains reports whether any line item references productID.
func (o *OrderDocument) Contains(productID string) bool {
	for _, item := range o.Items {
		if item.ProductID == productID || (item.ProductID == "" && item.ID == productID) {
			return true
		}
	}
	return false
}

// ProductRatingDocument holds the aggregate fields written onto a product document.
type ProductRatingDocument struct {
	AverageRating      float64        `bson:"average_rating" firestore:"average_rating"`
	RatingsCount       int            `bson:"ratings_count" firestore:"ratings_count"`
	RatingDistribution map[string]int `bson:"rating_distribution" firestore:"rating_distribution"`
	VerifiedReviews    int            `bson:"verified_reviews" firestore:"verified_reviews"`
	RatingUpdatedAt    time.Time      `bson:"rating_updated_at" firestore:"rating_updated_at"`
}

// NewProductRatingDocument converts a summary to its stored form. Map keys are
// strings because Firestore maps require them.
func NewProductRatingDocument(s *models.ReviewSummary, now time.Time) *ProductRatingDocument {
	dist := make(map[string]int, len(s.RatingDistribution))
	for star, n := range s.RatingDistribution {
		dist[strconv.Itoa(star)] = n
	}
	return &ProductRatingDocument{
		AverageRating:      s.AverageRating,
		RatingsCount:       s.TotalReviews,
		RatingDistribution: dist,
		VerifiedReviews:    s.VerifiedReviews,
		RatingUpdatedAt:    now,
	}
}

// Updates returns the partial update that writes the rating fields.
func (d *ProductRatingDocument) Updates() []Update {
	return []Update{
		Set("average_rating", d.AverageRating),
		Set("ratings_count", d.RatingsCount),
		Set("rating_distribution", d.RatingDistribution),
		Set("verified_reviews", d.VerifiedReviews),
		Set("rating_updated_at", d.RatingUpdatedAt),
	}
}

func NewReviewDocument(r *models.Review) *ReviewDocument {
	return &ReviewDocument{
		ProductID:         r.ProductID,
		ProductCollection: r.ProductCollection,
		UserID:            r.UserID,
		UserName:          r.UserName,
		UserEmail:         r.UserEmail,
		UserAvatar:        r.UserAvatar,
		Rating:            r.Rating,
		Title:             r.Title,
		Content:           r.Content,
		Images:            orEmpty(r.Images),
		Videos:            orEmpty(r.Videos),
		Gifs:              orEmpty(r.Gifs),
		Likes:             orEmpty(r.Likes),
		Dislikes:          orEmpty(r.Dislikes),
		Helpful:           orEmpty(r.Helpful),
		Replies:           r.Replies,
		Verified:          r.Verified,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func convertReviewDocumentToModel(doc *ReviewDocument) *models.Review {
	return &models.Review{
		ID:                doc.ID,
		ProductID:         doc.ProductID,
		ProductCollection: doc.ProductCollection,
		UserID:            doc.UserID,
		UserName:          doc.UserName,
		UserEmail:         doc.UserEmail,
		UserAvatar:        doc.UserAvatar,
		Rating:            doc.Rating,
		Title:             doc.Title,
		Content:           doc.Content,
		Images:            orEmpty(doc.Images),
		Videos:            orEmpty(doc.Videos),
		Gifs:              orEmpty(doc.Gifs),
		Likes:             orEmpty(doc.Likes),
		Dislikes:          orEmpty(doc.Dislikes),
		Helpful:           orEmpty(doc.Helpful),
		Replies:           doc.Replies,
		Verified:          doc.Verified,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
}

func NewCommentDocument(c *models.Comment) *CommentDocument {
	return &CommentDocument{
		ReviewID:        c.ReviewID,
		ProductID:       c.ProductID,
		UserID:          c.UserID,
		UserName:        c.UserName,
		UserEmail:       c.UserEmail,
		UserAvatar:      c.UserAvatar,
		Content:         c.Content,
		Likes:           orEmpty(c.Likes),
		Dislikes:        orEmpty(c.Dislikes),
		ParentCommentID: c.ParentCommentID,
		Verified:        c.Verified,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func convertCommentDocumentToModel(doc *CommentDocument) *models.Comment {
	return &models.Comment{
		ID:              doc.ID,
		ReviewID:        doc.ReviewID,
		ProductID:       doc.ProductID,
		UserID:          doc.UserID,
		UserName:        doc.UserName,
		UserEmail:       doc.UserEmail,
		UserAvatar:      doc.UserAvatar,
		Content:         doc.Content,
		Likes:           orEmpty(doc.Likes),
		Dislikes:        orEmpty(doc.Dislikes),
		ParentCommentID: doc.ParentCommentID,
		Verified:        doc.Verified,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}

// DecodeReview reads a review snapshot into the model.
func DecodeReview(snap Snapshot) (*models.Review, error) {
	var doc ReviewDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	doc.ID = snap.ID()
	return convertReviewDocumentToModel(&doc), nil
}

func DecodeComment(snap Snapshot) (*models.Comment, error) {
	var doc CommentDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	doc.ID = snap.ID()
	return convertCommentDocumentToModel(&doc), nil
}

func DecodeOrder(snap Snapshot) (*OrderDocument, error) {
	var doc OrderDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	doc.ID = snap.ID()
	return &doc, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package handlers

import (
	"net/http"

	"brew-reviews/internal/engine/actors"
	"brew-reviews/internal/models"

	"github.com/go-chi/chi/v5"
)

// CreateReviewRequest represents a request to review a product. The author comes
// from the bearer token.
type CreateReviewRequest struct {
	Rating  int      `json:"rating" validate:"required,gte=1,lte=5"`
	Title   string   `json:"title" validate:"max=200"`
	Content string   `json:"content" validate:"required,max=5000"`
	Images  []string `json:"images" validate:"omitempty,max=10,dive,url"`
	Videos  []string `json:"videos" validate:"omitempty,max=5,dive,url"`
	Gifs    []string `json:"gifs" validate:"omitempty,max=10,dive,url"`
}

// UpdateReviewRequest is a partial update; absent fields are left alone.
type UpdateReviewRequest struct {
	Rating  *int      `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Title   *string   `json:"title" validate:"omitempty,max=200"`
	Content *string   `json:"content" validate:"omitempty,max=5000"`
	Images  *[]string `json:"images"`
	Videos  *[]string `json:"videos"`
	Gifs    *[]string `json:"gifs"`
}

func (req UpdateReviewRequest) patch() models.ReviewPatch {
	return models.ReviewPatch{
		Rating:  req.Rating,
		Title:   req.Title,
		Content: req.Content,
		Images:  req.Images,
		Videos:  req.Videos,
		Gifs:    req.Gifs,
	}
}

// HandleGetProductReviews lists a product's reviews; ?sort= picks the order.
func (s *Server) HandleGetProductReviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, r, s.Engine.GetReviewActor(), &actors.GetProductReviewsMsg{
			ProductID: chi.URLParam(r, "productId"),
			Sort:      models.SortOrder(r.URL.Query().Get("sort")),
		}, http.StatusOK)
	}
}

func (s *Server) HandleCreateReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claims(w, r)
		if !ok {
			return
		}
		var req CreateReviewRequest
		if !s.decode(w, r, &req) {
			return
		}

		s.reply(w, r, s.Engine.GetReviewActor(), &actors.CreateReviewMsg{Review: models.NewReview{
			ProductID: chi.URLParam(r, "productId"),
			Author:    claims.Author(),
			Rating:    req.Rating,
			Title:     req.Title,
			Content:   req.Content,
			Images:    req.Images,
			Videos:    req.Videos,
			Gifs:      req.Gifs,
		}}, http.StatusCreated)
	}
}

func (s *Server) HandleGetSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, r, s.Engine.GetReviewActor(), &actors.GetSummaryMsg{
			ProductID: chi.URLParam(r, "productId"),
		}, http.StatusOK)
	}
}

// HandleRecomputeSummary rebuilds and stores the product's rating aggregate.
func (s *Server) HandleRecomputeSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.claims(w, r); !ok {
			return
		}
		s.reply(w, r, s.Engine.GetReviewActor(), &actors.RecomputeSummaryMsg{
			ProductID: chi.URLParam(r, "productId"),
		}, http.StatusOK)
	}
}

// HandleCheckPurchase tells the caller whether their review would be verified.
func (s *Server) HandleCheckPurchase() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claims(w, r)
		if !ok {
			return
		}
		s.reply(w, r, s.Engine.GetReviewActor(), &actors.CheckPurchaseMsg{
			UserID:    claims.UserID,
			ProductID: chi.URLParam(r, "productId"),
		}, http.StatusOK)
	}
}

func (s *Server) HandleGetUserReviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, r, s.Engine.GetReviewActor(), &actors.GetUserReviewsMsg{
			UserID: chi.URLParam(r, "userId"),
		}, http.StatusOK)
	}
}

func (s *Server) HandleGetReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, r, s.Engine.GetReviewActor(), &actors.GetReviewMsg{
			ReviewID: chi.URLParam(r, "reviewId"),
		}, http.StatusOK)
	}
}

func (s *Server) HandleUpdateReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claims(w, r)
		if !ok {
			return
		}
		var req UpdateReviewRequest
		if !s.decode(w, r, &req) {
			return
		}
		s.reply(w, r, s.Engine.GetReviewActor(), &actors.UpdateReviewMsg{
			ReviewID:    chi.URLParam(r, "reviewId"),
			RequesterID: claims.UserID,
			Patch:       req.patch(),
		}, http.StatusOK)
	}
}

func (s *Server) HandleDeleteReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claims(w, r)
		if !ok {
			return
		}
		s.reply(w, r, s.Engine.GetReviewActor(), &actors.DeleteReviewMsg{
			ReviewID:    chi.URLParam(r, "reviewId"),
			RequesterID: claims.UserID,
		}, http.StatusOK)
	}
}

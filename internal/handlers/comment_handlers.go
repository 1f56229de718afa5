package handlers

import (
	"net/http"

	"brew-reviews/internal/engine/actors"
	"brew-reviews/internal/middleware"
	"brew-reviews/internal/models"
	"brew-reviews/internal/utils"

	"github.com/go-chi/chi/v5"
)

// CreateCommentRequest represents a request to create a new comment
type CreateCommentRequest struct {
	Content         string  `json:"content" validate:"required,max=2000"`
	ParentCommentID *string `json:"parentCommentId,omitempty"` // Optional, for replies
}

// EditCommentRequest represents a request to edit an existing comment
type EditCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// HandleGetReviewComments lists a review's comments oldest first, or nested
// under their parents with ?view=thread.
func (s *Server) HandleGetReviewComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var thread bool
		switch view := r.URL.Query().Get("view"); view {
		case "", "flat":
		case "thread":
			thread = true
		default:
			middleware.WriteError(w, utils.NewAppError(utils.ErrInvalidInput, "Unknown view: "+view, nil), nil)
			return
		}

		s.reply(w, r, s.Engine.GetCommentActor(), &actors.GetReviewCommentsMsg{
			ReviewID: chi.URLParam(r, "reviewId"),
			Thread:   thread,
		}, http.StatusOK)
	}
}

func (s *Server) HandleCreateComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claims(w, r)
		if !ok {
			return
		}
		var req CreateCommentRequest
		if !s.decode(w, r, &req) {
			return
		}

		s.reply(w, r, s.Engine.GetCommentActor(), &actors.CreateCommentMsg{Comment: models.NewComment{
			ReviewID:        chi.URLParam(r, "reviewId"),
			Author:          claims.Author(),
			Content:         req.Content,
			ParentCommentID: req.ParentCommentID,
		}}, http.StatusCreated)
	}
}

func (s *Server) HandleGetUserComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, r, s.Engine.GetCommentActor(), &actors.GetUserCommentsMsg{
			UserID: chi.URLParam(r, "userId"),
		}, http.StatusOK)
	}
}

func (s *Server) HandleGetComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, r, s.Engine.GetCommentActor(), &actors.GetCommentMsg{
			CommentID: chi.URLParam(r, "commentId"),
		}, http.StatusOK)
	}
}

func (s *Server) HandleEditComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claims(w, r)
		if !ok {
			return
		}
		var req EditCommentRequest
		if !s.decode(w, r, &req) {
			return
		}
		s.reply(w, r, s.Engine.GetCommentActor(), &actors.EditCommentMsg{
			CommentID: chi.URLParam(r, "commentId"),
			AuthorID:  claims.UserID,
			Content:   req.Content,
		}, http.StatusOK)
	}
}

// HandleDeleteComment removes the comment and all replies below it.
func (s *Server) HandleDeleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claims(w, r)
		if !ok {
			return
		}
		s.reply(w, r, s.Engine.GetCommentActor(), &actors.DeleteCommentMsg{
			CommentID: chi.URLParam(r, "commentId"),
			AuthorID:  claims.UserID,
		}, http.StatusOK)
	}
}

package handlers

import (
	"net/http"

	"brew-reviews/internal/engine/actors"
	"brew-reviews/internal/models"

	"github.com/go-chi/chi/v5"
)

// ReactionRequest toggles one reaction for the caller.
type ReactionRequest struct {
	Type string `json:"type" validate:"required,oneof=like dislike helpful"`
}

// HandleToggleReaction serves both review and comment reactions; idParam names
// the route parameter holding the entity id.
func (s *Server) HandleToggleReaction(entity models.EntityKind, idParam string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claims(w, r)
		if !ok {
			return
		}
		var req ReactionRequest
		if !s.decode(w, r, &req) {
			return
		}
		s.reply(w, r, s.Engine.GetReactionActor(), &actors.ToggleReactionMsg{
			Entity:   entity,
			EntityID: chi.URLParam(r, idParam),
			UserID:   claims.UserID,
			Kind:     models.ReactionKind(req.Type),
		}, http.StatusOK)
	}
}

package handlers

import (
	"net/http"

	"brew-reviews/internal/middleware"
	"brew-reviews/internal/models"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig selects the cross-cutting pieces mounted around the API.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	// HTTPMetrics and Gatherer are optional; /metrics is served only with a Gatherer.
	HTTPMetrics *middleware.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

// Routes builds the HTTP router. Reads are public; writes need a bearer token.
func (s *Server) Routes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(s.Logger))
	r.Use(middleware.RequestLogger(s.Logger))
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware)
	}

	r.Get("/health", s.HandleHealth())
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	auth := middleware.AuthMiddleware(cfg.JWTSecret)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products/{productId}", func(r chi.Router) {
			r.Get("/reviews", s.HandleGetProductReviews())
			r.Get("/summary", s.HandleGetSummary())
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/reviews", s.HandleCreateReview())
				r.Post("/summary", s.HandleRecomputeSummary())
				r.Get("/purchase", s.HandleCheckPurchase())
			})
		})

		r.Get("/users/{userId}/reviews", s.HandleGetUserReviews())
		r.Get("/users/{userId}/comments", s.HandleGetUserComments())

		r.Route("/reviews/{reviewId}", func(r chi.Router) {
			r.Get("/", s.HandleGetReview())
			r.Get("/comments", s.HandleGetReviewComments())
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Patch("/", s.HandleUpdateReview())
				r.Delete("/", s.HandleDeleteReview())
				r.Post("/comments", s.HandleCreateComment())
				r.Post("/reactions", s.HandleToggleReaction(models.ReviewEntity, "reviewId"))
			})
		})

		r.Route("/comments/{commentId}", func(r chi.Router) {
			r.Get("/", s.HandleGetComment())
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Patch("/", s.HandleEditComment())
				r.Delete("/", s.HandleDeleteComment())
				r.Post("/reactions", s.HandleToggleReaction(models.CommentEntity, "commentId"))
			})
		})
	})

	return r
}

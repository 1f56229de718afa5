package feedback

import (
	"context"
	"log/slog"
	"time"

	"brew-reviews/internal/database"
	"brew-reviews/internal/utils"

	"github.com/google/uuid"
)

// Options configures the review engine.
type Options struct {
	ProductCollections []string
	FallbackCollection string
	RequirePurchase    bool
	LocatorCache       LocatorCache
	Metrics            *utils.MetricsCollector
	Logger             *slog.Logger
	// Clock and NewID default to UTC wall time and random UUIDs.
	Clock func() time.Time
	NewID func() string
}

// Services wires the review engine components over one document store.
type Services struct {
	Locator   *ProductLocator
	Purchases *PurchaseVerifier
	Reviews   *ReviewStore
	Comments  *CommentStore
	Reactions *ReactionEngine
	Ratings   *RatingAggregator
}

func New(db database.DocumentStore, opts Options) *Services {
	e := env{
		now:     opts.Clock,
		newID:   opts.NewID,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	locator := NewProductLocator(db, opts.ProductCollections, opts.FallbackCollection, opts.LocatorCache, e.logger)
	purchases := NewPurchaseVerifier(db, e.logger)
	reviews := &ReviewStore{
		db:              db,
		locator:         locator,
		purchases:       purchases,
		requirePurchase: opts.RequirePurchase,
		env:             e,
	}
	ratings := &RatingAggregator{db: db, locator: locator, reviews: reviews, env: e}
	reviews.ratings = ratings
	comments := &CommentStore{db: db, reviews: reviews, purchases: purchases, env: e}

	return &Services{
		Locator:   locator,
		Purchases: purchases,
		Reviews:   reviews,
		Comments:  comments,
		Reactions: &ReactionEngine{db: db, reviews: reviews, comments: comments},
		Ratings:   ratings,
	}
}

// env holds the ambient dependencies shared by the stores.
type env struct {
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
	metrics *utils.MetricsCollector
}

// partialWrite records a secondary write that failed after the primary one succeeded.
// These are logged and counted, never returned.
func (e env) partialWrite(operation string, err error, attrs ...slog.Attr) {
	e.metrics.IncrementPartialWrites(operation)
	attrs = append(attrs, slog.String("operation", operation), slog.String("error", err.Error()))
	e.logger.LogAttrs(context.Background(), slog.LevelWarn, "secondary write failed", attrs...)
}

package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"brew-reviews/internal/models"
)

var (
	sortOrders    = []models.SortOrder{
		models.SortNewest, models.SortOldest, models.SortRatingHigh, models.SortRatingLow, models.SortMostHelpful,
	}
	reactionKinds = []string{"like", "dislike", "helpful"}
	reviewTexts   = []string{
		"Bright acidity with a long, clean finish.",
		"Too roasty for my taste, but the crema was great.",
		"Chocolate and cherry notes, perfect as espresso.",
		"Smooth and sweet, ordering again next month.",
		"Stale on arrival, the bag was not sealed properly.",
	}
	commentTexts = []string{
		"What grinder did you use?",
		"Agreed, it shines as a pour over.",
		"Try a coarser grind, it helped me a lot.",
		"How long after the roast date did you brew it?",
	}
)

// activity is one simulated action performed by a connected user.
type activity struct {
	name string
	// perHour is the expected rate per connected user.
	perHour float64
	run     func(ctx context.Context, user *SimulatedUser) error
}

// SimulateActivities runs every activity loop until ctx is done. Comments and
// reactions idle until at least one review exists.
func (s *Simulator) SimulateActivities(ctx context.Context) {
	activities := []activity{
		{name: "review", perHour: s.config.ReviewFrequency, run: s.postReview},
		{name: "comment", perHour: s.config.CommentFrequency, run: s.postComment},
		{name: "reaction", perHour: s.config.ReactionFrequency, run: s.react},
		{name: "browse", perHour: s.config.BrowseFrequency, run: s.browse},
	}

	var wg sync.WaitGroup
	for _, a := range activities {
		wg.Add(1)
		go func(a activity) {
			defer wg.Done()
			s.loop(ctx, a)
		}(a)
	}
	wg.Wait()
}

// loop rolls each connected user against the activity rate twice a second and
// hands the selected users to a bounded worker pool.
func (s *Simulator) loop(ctx context.Context, a activity) {
	const tick = 500 * time.Millisecond
	p := a.perHour / 3600 * tick.Seconds()

	jobs := make(chan *SimulatedUser, s.config.NumUsers)
	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				if err := a.run(ctx, user); err != nil && ctx.Err() == nil {
					s.logActivityError(a.name, user, err)
				}
			}
		}()
	}

	ticker := time.NewTicker(tick)
	defer func() {
		ticker.Stop()
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, user := range s.connectedUsers() {
				if !s.chance(p) {
					continue
				}
				select {
				case jobs <- user:
				default:
					// workers saturated; drop this roll
				}
			}
		}
	}
}

func (s *Simulator) logActivityError(name string, user *SimulatedUser, err error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Status < http.StatusInternalServerError {
		s.logger.Debug("activity rejected",
			slog.String("activity", name),
			slog.String("user_id", user.ID),
			slog.String("code", reqErr.Code),
		)
		return
	}
	s.logger.Warn("activity failed",
		slog.String("activity", name),
		slog.String("user_id", user.ID),
		slog.String("error", err.Error()),
	)
}

func (s *Simulator) connectedUsers() []*SimulatedUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*SimulatedUser, 0, len(s.users))
	for _, u := range s.users {
		if u.IsConnected {
			out = append(out, u)
		}
	}
	return out
}

// pickReview returns a random known review, or nil before the first one exists.
func (s *Simulator) pickReview() *postedReview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.reviews) == 0 {
		return nil
	}
	return s.reviews[s.intn(len(s.reviews))]
}

func (s *Simulator) postReview(ctx context.Context, user *SimulatedUser) error {
	productID := s.pickProduct()
	body := map[string]any{
		"rating":  1 + s.intn(5),
		"title":   fmt.Sprintf("Notes on %s", productID),
		"content": reviewTexts[s.intn(len(reviewTexts))],
	}
	var review models.Review
	if err := s.do(ctx, user, http.MethodPost, "/api/v1/products/"+productID+"/reviews", body, &review); err != nil {
		return err
	}

	s.mu.Lock()
	s.reviews = append(s.reviews, &postedReview{ID: review.ID, ProductID: productID})
	user.Reviews = append(user.Reviews, review.ID)
	user.LastActive = time.Now()
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalReviews++
	s.stats.mu.Unlock()
	return nil
}

// postComment comments on a review, replying to an earlier comment about a third of the time.
func (s *Simulator) postComment(ctx context.Context, user *SimulatedUser) error {
	review := s.pickReview()
	if review == nil {
		return nil
	}
	body := map[string]any{"content": commentTexts[s.intn(len(commentTexts))]}

	s.mu.RLock()
	if n := len(review.Comments); n > 0 && s.chance(1.0/3) {
		body["parentCommentId"] = review.Comments[s.intn(n)]
	}
	s.mu.RUnlock()

	var comment models.Comment
	if err := s.do(ctx, user, http.MethodPost, "/api/v1/reviews/"+review.ID+"/comments", body, &comment); err != nil {
		return err
	}

	s.mu.Lock()
	review.Comments = append(review.Comments, comment.ID)
	user.Comments = append(user.Comments, comment.ID)
	user.LastActive = time.Now()
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalComments++
	s.stats.mu.Unlock()
	return nil
}

// react toggles a reaction on a review, or on one of its comments when it has any.
func (s *Simulator) react(ctx context.Context, user *SimulatedUser) error {
	review := s.pickReview()
	if review == nil {
		return nil
	}

	endpoint := "/api/v1/reviews/" + review.ID + "/reactions"
	kind := reactionKinds[s.intn(len(reactionKinds))]
	s.mu.RLock()
	if n := len(review.Comments); n > 0 && s.chance(0.5) {
		endpoint = "/api/v1/comments/" + review.Comments[s.intn(n)] + "/reactions"
		kind = reactionKinds[s.intn(2)]
	}
	s.mu.RUnlock()

	var state models.ReactionState
	if err := s.do(ctx, user, http.MethodPost, endpoint, map[string]string{"type": kind}, &state); err != nil {
		return err
	}

	s.stats.mu.Lock()
	s.stats.TotalReactions++
	s.stats.mu.Unlock()
	return nil
}

// browse performs the anonymous reads a shopper makes on a product page.
func (s *Simulator) browse(ctx context.Context, _ *SimulatedUser) error {
	productID := s.pickProduct()
	sort := sortOrders[s.intn(len(sortOrders))]

	var reviews []models.Review
	if err := s.do(ctx, nil, http.MethodGet, "/api/v1/products/"+productID+"/reviews?sort="+string(sort), nil, &reviews); err != nil {
		return err
	}
	var summary models.ReviewSummary
	if err := s.do(ctx, nil, http.MethodGet, "/api/v1/products/"+productID+"/summary", nil, &summary); err != nil {
		return err
	}
	reads := 2
	if len(reviews) > 0 {
		var threads []models.CommentThread
		path := "/api/v1/reviews/" + reviews[s.intn(len(reviews))].ID + "/comments?view=thread"
		if err := s.do(ctx, nil, http.MethodGet, path, nil, &threads); err != nil {
			return err
		}
		reads++
	}

	s.stats.mu.Lock()
	s.stats.TotalReads += reads
	s.stats.mu.Unlock()
	return nil
}

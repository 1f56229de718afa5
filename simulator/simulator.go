package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"brew-reviews/internal/middleware"
	"brew-reviews/internal/models"

	"github.com/google/uuid"
)

// SimConfig drives a load run against a running engine. Frequencies are
// actions per connected user per hour.
type SimConfig struct {
	NumUsers          int           `env:"SIM_USERS" envDefault:"10"`
	NumProducts       int           `env:"SIM_PRODUCTS" envDefault:"20"`
	SimulationTime    time.Duration `env:"SIM_DURATION" envDefault:"10m"`
	ReviewFrequency   float64       `env:"SIM_REVIEW_FREQUENCY" envDefault:"60"`
	CommentFrequency  float64       `env:"SIM_COMMENT_FREQUENCY" envDefault:"90"`
	ReactionFrequency float64       `env:"SIM_REACTION_FREQUENCY" envDefault:"200"`
	BrowseFrequency   float64       `env:"SIM_BROWSE_FREQUENCY" envDefault:"300"`
	// Share of users seeded with an order for every product.
	BuyerRatio     float64 `env:"SIM_BUYER_RATIO" envDefault:"0.5"`
	DisconnectRate float64 `env:"SIM_DISCONNECT_RATE" envDefault:"0.01"`
	ReconnectRate  float64 `env:"SIM_RECONNECT_RATE" envDefault:"0.05"`
	ZipfS          float64 `env:"SIM_ZIPF_S" envDefault:"1.07"`
	Workers        int     `env:"SIM_WORKERS" envDefault:"5"`
	EngineURL      string  `env:"SIM_ENGINE_URL" envDefault:"http://localhost:8080"`
	JWTSecret      string  `env:"JWT_SECRET" envDefault:"brew_reviews_secret_key_should_be_loaded_from_env"`
}

type SimulationStats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	// Rejected counts 4xx replies, which are expected traffic (e.g. unpurchased products).
	Rejected       int64
	AverageLatency time.Duration
	ActiveUsers    int
	TotalReviews   int
	TotalComments  int
	TotalReactions int
	TotalReads     int
}

// SimulationMetrics is a point-in-time copy of the run statistics.
type SimulationMetrics struct {
	TotalUsers        int
	ActiveUsers       int
	TotalReviews      int
	TotalComments     int
	TotalReactions    int
	TotalReads        int
	AverageLatency    time.Duration
	ErrorCount        int
	RejectedCount     int
	RequestsPerSecond float64
}

// SimulatedUser is a shopper with a pre-minted bearer token.
type SimulatedUser struct {
	ID          string
	Name        string
	Email       string
	Token       string
	IsConnected bool
	LastActive  time.Time
	Reviews     []string
	Comments    []string
}

// postedReview is a review the simulator created and can comment on.
type postedReview struct {
	ID        string
	ProductID string
	Comments  []string
}

// RequestError is a non-2xx reply from the engine.
type RequestError struct {
	Status int
	middleware.ErrorResponse
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s: %s", e.Status, e.Code, e.Message)
}

type Simulator struct {
	config   SimConfig
	stats    *SimulationStats
	users    []*SimulatedUser
	products []string
	client   *http.Client
	logger   *slog.Logger

	mu      sync.RWMutex
	reviews []*postedReview

	rngMu sync.Mutex
	rng   *rand.Rand
	zipf  *rand.Zipf
}

func NewSimulator(config SimConfig, logger *slog.Logger) *Simulator {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.ZipfS <= 1 {
		config.ZipfS = 1.07
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Simulator{
		config:   config,
		stats:    &SimulationStats{StartTime: time.Now()},
		products: ProductIDs(config.NumProducts),
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.With(slog.String("component", "simulator")),
		rng:      rng,
		zipf:     rand.NewZipf(rng, config.ZipfS, 1, uint64(max(config.NumProducts-1, 0))),
	}
}

// ProductIDs names the simulated catalogue. SeedCatalog writes the same ids.
func ProductIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("sim-product-%03d", i)
	}
	return ids
}

// UserID is the id of the n-th simulated user.
func UserID(n int) string {
	return fmt.Sprintf("sim-user-%d", n)
}

func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("starting simulation",
		slog.String("engine_url", s.config.EngineURL),
		slog.Int("users", s.config.NumUsers),
		slog.Int("products", s.config.NumProducts),
		slog.Duration("duration", s.config.SimulationTime),
	)

	if err := s.initialize(); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.SimulateActivities(ctx)
	}()
	go func() {
		defer wg.Done()
		s.simulateConnectivity(ctx)
	}()
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()
	wg.Wait()
	return nil
}

// initialize mints a token per user; identities are owned by the auth issuer,
// so nothing is registered with the engine.
func (s *Simulator) initialize() error {
	if len(s.products) == 0 {
		return errors.New("no products to review")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make([]*SimulatedUser, 0, s.config.NumUsers)
	for i := 0; i < s.config.NumUsers; i++ {
		user := &SimulatedUser{
			ID:          UserID(i),
			Name:        fmt.Sprintf("Taster %d", i),
			Email:       fmt.Sprintf("taster_%d@example.com", i),
			IsConnected: true,
		}
		token, err := middleware.GenerateToken(s.config.JWTSecret, models.Author{
			UserID:    user.ID,
			UserName:  user.Name,
			UserEmail: user.Email,
		})
		if err != nil {
			return fmt.Errorf("failed to mint token for %s: %w", user.ID, err)
		}
		user.Token = token
		s.users = append(s.users, user)
	}
	s.stats.mu.Lock()
	s.stats.ActiveUsers = len(s.users)
	s.stats.mu.Unlock()
	s.logger.Info("users ready", slog.Int("count", len(s.users)))
	return nil
}

// pickProduct draws a product index with Zipf popularity: low indexes are hot.
func (s *Simulator) pickProduct() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.products[int(s.zipf.Uint64())%len(s.products)]
}

func (s *Simulator) chance(p float64) bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < p
}

func (s *Simulator) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// do sends a JSON request as user (anonymous when nil) and decodes a 2xx body into out.
func (s *Simulator) do(ctx context.Context, user *SimulatedUser, method, endpoint string, data, out any) error {
	var body io.Reader
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.EngineURL+endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+user.Token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.recordRequestMetrics(start, 0)
		return err
	}
	defer resp.Body.Close()
	s.recordRequestMetrics(start, resp.StatusCode)

	if resp.StatusCode >= 400 {
		reqErr := &RequestError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(&reqErr.ErrorResponse)
		return reqErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// recordRequestMetrics folds one request into the stats; status 0 is a transport failure.
func (s *Simulator) recordRequestMetrics(start time.Time, status int) {
	latency := time.Since(start)
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	s.stats.TotalRequests++
	switch {
	case status == 0 || status >= 500:
		s.stats.FailedRequests++
	case status >= 400:
		s.stats.Rejected++
	default:
		s.stats.SuccessRequests++
	}
	// running mean
	n := time.Duration(s.stats.TotalRequests)
	s.stats.AverageLatency += (latency - s.stats.AverageLatency) / n
}

func (s *Simulator) simulateConnectivity(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			active := 0
			for _, user := range s.users {
				if user.IsConnected {
					user.IsConnected = !s.chance(s.config.DisconnectRate)
				} else {
					user.IsConnected = s.chance(s.config.ReconnectRate)
				}
				if user.IsConnected {
					active++
				}
			}
			s.mu.Unlock()

			s.stats.mu.Lock()
			s.stats.ActiveUsers = active
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.GetMetrics()
			s.logger.Info("simulation progress",
				slog.Float64("requests_per_second", m.RequestsPerSecond),
				slog.Duration("average_latency", m.AverageLatency),
				slog.Int("active_users", m.ActiveUsers),
				slog.Int("reviews", m.TotalReviews),
				slog.Int("comments", m.TotalComments),
				slog.Int("reactions", m.TotalReactions),
				slog.Int("reads", m.TotalReads),
				slog.Int("rejected", m.RejectedCount),
				slog.Int("errors", m.ErrorCount),
			)
		}
	}
}

func (s *Simulator) GetMetrics() SimulationMetrics {
	s.mu.RLock()
	totalUsers := len(s.users)
	s.mu.RUnlock()

	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(s.stats.TotalRequests) / elapsed
	}
	return SimulationMetrics{
		TotalUsers:        totalUsers,
		ActiveUsers:       s.stats.ActiveUsers,
		TotalReviews:      s.stats.TotalReviews,
		TotalComments:     s.stats.TotalComments,
		TotalReactions:    s.stats.TotalReactions,
		TotalReads:        s.stats.TotalReads,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RejectedCount:     int(s.stats.Rejected),
		RequestsPerSecond: rate,
	}
}

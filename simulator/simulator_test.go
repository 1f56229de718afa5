package simulator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brew-reviews/internal/database"
	"brew-reviews/internal/engine"
	"brew-reviews/internal/engine/actors"
	"brew-reviews/internal/feedback"
	"brew-reviews/internal/handlers"
	"brew-reviews/internal/logger"
	"brew-reviews/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "simulator-test-secret"

func testConfig(url string) SimConfig {
	return SimConfig{
		NumUsers:    4,
		NumProducts: 3,
		BuyerRatio:  0.5,
		ZipfS:       1.07,
		Workers:     2,
		EngineURL:   url,
		JWTSecret:   testSecret,
	}
}

// startEngine serves the full HTTP stack over a seeded in-memory store.
func startEngine(t *testing.T) (*httptest.Server, *database.MemoryStore) {
	t.Helper()
	db := database.NewMemoryStore()
	require.NoError(t, SeedCatalog(context.Background(), db, "raw-beans", testConfig(""), logger.Discard()))

	metrics := utils.NewMetricsCollector(prometheus.NewRegistry())
	svc := feedback.New(db, feedback.Options{
		ProductCollections: []string{"brewed-drinks", "raw-beans"},
		FallbackCollection: "products",
		RequirePurchase:    true,
		Metrics:            metrics,
		Logger:             logger.Discard(),
	})
	system := actor.NewActorSystem()
	t.Cleanup(system.Shutdown)
	eng := engine.NewEngine(system, actors.Deps{Services: svc, Metrics: metrics, Logger: logger.Discard()})
	s := handlers.NewServer(system, eng, metrics, logger.Discard(), 5*time.Second)

	server := httptest.NewServer(s.Routes(handlers.RouterConfig{JWTSecret: testSecret}))
	t.Cleanup(server.Close)
	return server, db
}

func TestSeedCatalog(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryStore()
	require.NoError(t, SeedCatalog(ctx, db, "raw-beans", testConfig(""), logger.Discard()))

	for _, id := range ProductIDs(3) {
		ok, err := db.Exists(ctx, "raw-beans", id)
		require.NoError(t, err)
		assert.True(t, ok, id)
	}

	orders, err := db.Query(ctx, database.OrdersCollection, "userId", UserID(1))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	var order database.OrderDocument
	require.NoError(t, orders[0].DataTo(&order))
	assert.True(t, order.Contains(ProductIDs(3)[2]))

	orders, err = db.Query(ctx, database.OrdersCollection, "userId", UserID(2))
	require.NoError(t, err)
	assert.Empty(t, orders)

	// re-seeding overwrites in place
	require.NoError(t, SeedCatalog(ctx, db, "raw-beans", testConfig(""), logger.Discard()))
	all, err := db.List(ctx, database.OrdersCollection)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestActivitiesAgainstEngine(t *testing.T) {
	server, _ := startEngine(t)
	ctx := context.Background()
	sim := NewSimulator(testConfig(server.URL), logger.Discard())
	require.NoError(t, sim.initialize())
	buyer, browser := sim.users[0], sim.users[3]

	require.NoError(t, sim.postReview(ctx, buyer))
	require.Len(t, sim.reviews, 1)
	assert.Equal(t, []string{sim.reviews[0].ID}, buyer.Reviews)

	err := sim.postReview(ctx, browser)
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusForbidden, reqErr.Status)
	assert.Equal(t, utils.ErrPurchaseRequired, reqErr.Code)

	require.NoError(t, sim.postComment(ctx, browser))
	require.NoError(t, sim.postComment(ctx, buyer))
	assert.Len(t, sim.reviews[0].Comments, 2)

	require.NoError(t, sim.react(ctx, browser))
	require.NoError(t, sim.browse(ctx, nil))

	m := sim.GetMetrics()
	assert.Equal(t, 4, m.TotalUsers)
	assert.Equal(t, 1, m.TotalReviews)
	assert.Equal(t, 2, m.TotalComments)
	assert.Equal(t, 1, m.TotalReactions)
	assert.GreaterOrEqual(t, m.TotalReads, 2)
	assert.Equal(t, 1, m.RejectedCount)
	assert.Zero(t, m.ErrorCount)
}

func TestActivitiesWaitForReviews(t *testing.T) {
	sim := NewSimulator(testConfig("http://127.0.0.1:0"), logger.Discard())
	require.NoError(t, sim.initialize())

	assert.NoError(t, sim.postComment(context.Background(), sim.users[0]))
	assert.NoError(t, sim.react(context.Background(), sim.users[0]))
	assert.Zero(t, sim.GetMetrics().RequestsPerSecond)
}

func TestPickProductFavoursHeadOfCatalog(t *testing.T) {
	cfg := testConfig("")
	cfg.NumProducts = 20
	sim := NewSimulator(cfg, logger.Discard())

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		counts[sim.pickProduct()]++
	}
	ids := ProductIDs(20)
	for id := range counts {
		assert.Contains(t, ids, id)
	}
	assert.Greater(t, counts[ids[0]], counts[ids[19]])
}

func TestRequestStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"NOT_FOUND","message":"Review not found"}`))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}
	}))
	defer server.Close()

	sim := NewSimulator(testConfig(server.URL), logger.Discard())
	ctx := context.Background()

	var out map[string]string
	require.NoError(t, sim.do(ctx, nil, http.MethodGet, "/ok", nil, &out))
	assert.Equal(t, "ok", out["status"])

	err := sim.do(ctx, nil, http.MethodGet, "/missing", nil, nil)
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "NOT_FOUND", reqErr.Code)
	assert.Contains(t, err.Error(), "Review not found")

	require.Error(t, sim.do(ctx, nil, http.MethodGet, "/broken", nil, nil))

	m := sim.GetMetrics()
	assert.Equal(t, 1, m.RejectedCount)
	assert.Equal(t, 1, m.ErrorCount)
	assert.Greater(t, m.AverageLatency, time.Duration(0))
}

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"brew-reviews/internal/engine"
	"brew-reviews/internal/middleware"
	"brew-reviews/internal/utils"
	"brew-reviews/internal/validator"

	"github.com/asynkron/protoactor-go/actor"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	engine *engine.Engine,
	metrics *utils.MetricsCollector,
	logger *slog.Logger,
	requestTimeout time.Duration,
) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second // Default timeout for actor requests
	}
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         engine,
		Metrics:        metrics,
		Logger:         logger,
		RequestTimeout: requestTimeout,
	}
}

// ask sends msg to pid and unwraps the reply. Actor-side failures arrive as
// *utils.AppError replies; transport failures are mapped here.
func (s *Server) ask(pid *actor.PID, msg any) (any, *utils.AppError) {
	result, err := s.Context.RequestFuture(pid, msg, s.RequestTimeout).Result()
	if err != nil {
		if errors.Is(err, actor.ErrTimeout) {
			return nil, utils.NewActorTimeoutError(pid.GetId())
		}
		return nil, utils.NewAppError(utils.ErrMessageRejected, "Request could not be delivered", err)
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

// reply asks pid and writes the result as JSON with the given status.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, pid *actor.PID, msg any, status int) {
	result, appErr := s.ask(pid, msg)
	if appErr != nil {
		s.writeError(w, r, appErr)
		return
	}
	writeJSON(w, status, result)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, appErr *utils.AppError) {
	if utils.AppErrorToHTTPStatus(appErr.Code) >= http.StatusInternalServerError {
		s.Logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("code", appErr.Code),
			slog.String("error", appErr.Error()),
		)
	}
	middleware.WriteError(w, appErr, nil)
}

// decode reads and validates a request body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		middleware.WriteError(w, utils.NewAppError(utils.ErrInvalidInput, "Validation failed", err), verr.Fields())
		return false
	}
	middleware.WriteError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err), nil)
	return false
}

// claims returns the authenticated caller. Routes using it are mounted behind
// the auth middleware, so a miss is a wiring bug reported as 401.
func (s *Server) claims(w http.ResponseWriter, r *http.Request) (*middleware.Claims, bool) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, utils.NewUnauthorizedError("authentication required"), nil)
	}
	return claims, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleHealth reports liveness and uptime.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"uptime":      s.Metrics.Uptime().Round(time.Second).String(),
			"server_time": time.Now().UTC(),
		})
	}
}

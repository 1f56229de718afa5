package actors

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"brew-reviews/internal/feedback"
	"brew-reviews/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

const defaultOperationTimeout = 5 * time.Second

// Deps are the collaborators shared by every actor.
type Deps struct {
	Services *feedback.Services
	Metrics  *utils.MetricsCollector
	Logger   *slog.Logger
	// OperationTimeout bounds the storage calls made while handling one message.
	OperationTimeout time.Duration
}

// base carries the ambient pieces of an actor.
type base struct {
	name    string
	metrics *utils.MetricsCollector
	logger  *slog.Logger
	timeout time.Duration
}

func newBase(name string, deps Deps) base {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := deps.OperationTimeout
	if timeout <= 0 {
		timeout = defaultOperationTimeout
	}
	return base{
		name:    name,
		metrics: deps.Metrics,
		logger:  logger.With(slog.String("actor", name)),
		timeout: timeout,
	}
}

func (b base) requestContext() (stdctx.Context, stdctx.CancelFunc) {
	return stdctx.WithTimeout(stdctx.Background(), b.timeout)
}

// respond records the operation and replies with result, or with an AppError if err is set.
func (b base) respond(context actor.Context, operation string, start time.Time, result any, err error) {
	b.metrics.Observe(operation, start, err)
	if err != nil {
		appErr := utils.ToAppError(err, "Operation failed: "+operation)
		if appErr.Code == utils.ErrDatabase {
			b.logger.Error("operation failed",
				slog.String("operation", operation),
				slog.String("error", err.Error()),
			)
		}
		context.Respond(appErr)
		return
	}
	context.Respond(result)
}

// lifecycle handles system messages and reports whether msg was one.
func (b base) lifecycle(context actor.Context) bool {
	switch context.Message().(type) {
	case *actor.Started:
		b.logger.Debug("actor started", slog.String("pid", context.Self().String()))
		return true
	case *actor.Stopping, *actor.Stopped, *actor.Restarting:
		return true
	}
	return false
}

func (b base) unknown(msg any) {
	b.logger.Warn("unknown message", slog.String("type", fmt.Sprintf("%T", msg)))
}

package engine

import (
	"brew-reviews/internal/engine/actors"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates communication between actors
type Engine struct {
	reviewActor   *actor.PID
	commentActor  *actor.PID
	reactionActor *actor.PID
}

// NewEngine spawns one actor per concern on the system's root context.
func NewEngine(system *actor.ActorSystem, deps actors.Deps) *Engine {
	context := system.Root

	reviewProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewReviewActor(deps)
	})
	commentProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewCommentActor(deps)
	})
	reactionProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewReactionActor(deps)
	})

	return &Engine{
		reviewActor:   context.Spawn(reviewProps),
		commentActor:  context.Spawn(commentProps),
		reactionActor: context.Spawn(reactionProps),
	}
}

// GetReviewActor returns the PID of the review actor
func (e *Engine) GetReviewActor() *actor.PID {
	return e.reviewActor
}

// GetCommentActor returns the PID of the comment actor
func (e *Engine) GetCommentActor() *actor.PID {
	return e.commentActor
}

// GetReactionActor returns the PID of the reaction actor
func (e *Engine) GetReactionActor() *actor.PID {
	return e.reactionActor
}

// Stop halts every actor and waits for each to finish its current message.
func (e *Engine) Stop(system *actor.ActorSystem) {
	for _, pid := range []*actor.PID{e.reviewActor, e.commentActor, e.reactionActor} {
		_ = system.Root.StopFuture(pid).Wait()
	}
}

package actors

import (
	"time"

	"brew-reviews/internal/feedback"
	"brew-reviews/internal/models"

	"github.com/asynkron/protoactor-go/actor"
)

type ToggleReactionMsg struct {
	Entity   models.EntityKind
	EntityID string
	UserID   string
	Kind     models.ReactionKind
}

// ReactionActor serializes reaction toggles. One mailbox for every entity keeps a
// user's rapid double taps in order within this process.
type ReactionActor struct {
	base
	reactions *feedback.ReactionEngine
}

func NewReactionActor(deps Deps) actor.Actor {
	return &ReactionActor{
		base:      newBase("reaction", deps),
		reactions: deps.Services.Reactions,
	}
}

func (a *ReactionActor) Receive(context actor.Context) {
	if a.lifecycle(context) {
		return
	}
	switch msg := context.Message().(type) {
	case *ToggleReactionMsg:
		start := time.Now()
		ctx, cancel := a.requestContext()
		defer cancel()

		state, err := a.reactions.Toggle(ctx, msg.Entity, msg.EntityID, msg.UserID, msg.Kind)
		a.respond(context, "toggle_"+string(msg.Entity)+"_reaction", start, state, err)
	default:
		a.unknown(msg)
	}
}

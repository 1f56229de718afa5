package feedback

import (
	"context"
	"slices"

	"brew-reviews/internal/database"
	"brew-reviews/internal/models"
	"brew-reviews/internal/utils"
)

// ReactionEngine toggles like, dislike and helpful marks. Like and dislike exclude
// each other; helpful applies to reviews only.
type ReactionEngine struct {
	db       database.DocumentStore
	reviews  *ReviewStore
	comments *CommentStore
}

// reactionSets is the reaction membership of one entity.
type reactionSets struct {
	likes, dislikes, helpful []string
}

func (r *reactionSets) set(kind models.ReactionKind) *[]string {
	switch kind {
	case models.ReactionLike:
		return &r.likes
	case models.ReactionDislike:
		return &r.dislikes
	default:
		return &r.helpful
	}
}

func reactionField(kind models.ReactionKind) string {
	switch kind {
	case models.ReactionLike:
		return database.FieldLikes
	case models.ReactionDislike:
		return database.FieldDislikes
	default:
		return database.FieldHelpful
	}
}

// Toggle flips userID's reaction of the given kind on an entity and returns the
// resulting state.
func (e *ReactionEngine) Toggle(ctx context.Context, entity models.EntityKind, entityID, userID string, kind models.ReactionKind) (*models.ReactionState, error) {
	if err := utils.RequireField("entityId", entityID); err != nil {
		return nil, err
	}
	if err := utils.RequireField("userId", userID); err != nil {
		return nil, err
	}
	if err := validateReaction(entity, kind); err != nil {
		return nil, err
	}

	switch entity {
	case models.ReviewEntity:
		loc, err := e.reviews.resolve(ctx, entityID)
		if err != nil {
			return nil, err
		}
		sets := &reactionSets{likes: loc.review.Likes, dislikes: loc.review.Dislikes, helpful: loc.review.Helpful}
		updates := toggle(sets, userID, kind)
		if err := e.reviews.apply(ctx, loc, "reaction.toggle", updates...); err != nil {
			return nil, err
		}
		return reactionState(entity, entityID, userID, sets), nil

	default:
		comment, err := e.comments.Get(ctx, entityID)
		if err != nil {
			return nil, err
		}
		sets := &reactionSets{likes: comment.Likes, dislikes: comment.Dislikes}
		updates := toggle(sets, userID, kind)
		if err := e.db.Update(ctx, database.CommentsCollection, entityID, updates...); err != nil {
			if utils.IsErrorCode(err, utils.ErrNotFound) {
				return nil, utils.NewNotFoundError("comment", entityID)
			}
			return nil, utils.NewAppError(utils.ErrDatabase, "Failed to update comment reactions", err)
		}
		return reactionState(entity, entityID, userID, sets), nil
	}
}

func validateReaction(entity models.EntityKind, kind models.ReactionKind) error {
	unsupported := &utils.UnsupportedReactionError{Entity: string(entity), Kind: string(kind)}
	switch entity {
	case models.ReviewEntity:
		switch kind {
		case models.ReactionLike, models.ReactionDislike, models.ReactionHelpful:
			return nil
		}
	case models.CommentEntity:
		switch kind {
		case models.ReactionLike, models.ReactionDislike:
			return nil
		}
	}
	return unsupported
}

// toggle updates sets in place and returns the matching set operations. Adding a
// like or dislike always clears the opposite mark, even if the read was stale.
func toggle(sets *reactionSets, userID string, kind models.ReactionKind) []database.Update {
	target := sets.set(kind)
	if slices.Contains(*target, userID) {
		*target = without(*target, userID)
		return []database.Update{database.RemoveFromSet(reactionField(kind), userID)}
	}

	*target = append(slices.Clone(*target), userID)
	updates := []database.Update{database.AddToSet(reactionField(kind), userID)}
	if opposite, ok := kind.Opposite(); ok {
		other := sets.set(opposite)
		*other = without(*other, userID)
		updates = append(updates, database.RemoveFromSet(reactionField(opposite), userID))
	}
	return updates
}

func without(values []string, v string) []string {
	out := make([]string, 0, len(values))
	for _, x := range values {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func reactionState(entity models.EntityKind, entityID, userID string, sets *reactionSets) *models.ReactionState {
	return &models.ReactionState{
		Entity:       entity,
		EntityID:     entityID,
		UserID:       userID,
		Liked:        slices.Contains(sets.likes, userID),
		Disliked:     slices.Contains(sets.dislikes, userID),
		Helpful:      slices.Contains(sets.helpful, userID),
		LikeCount:    len(sets.likes),
		DislikeCount: len(sets.dislikes),
		HelpfulCount: len(sets.helpful),
	}
}

package models

// ReactionKind is the kind of reaction a user can toggle.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
	ReactionHelpful ReactionKind = "helpful"
)

// EntityKind is the type of content being reacted to.
type EntityKind string

const (
	ReviewEntity  EntityKind = "review"
	CommentEntity EntityKind = "comment"
)

// Opposite returns the reaction that is cleared when k is added, if any.
func (k ReactionKind) Opposite() (ReactionKind, bool) {
	switch k {
	case ReactionLike:
		return ReactionDislike, true
	case ReactionDislike:
		return ReactionLike, true
	}
	return "", false
}

// ReactionState is the outcome of a toggle as seen by the reacting user.
type ReactionState struct {
	Entity       EntityKind `json:"entity"`
	EntityID     string     `json:"entityId"`
	UserID       string     `json:"userId"`
	Liked        bool       `json:"liked"`
	Disliked     bool       `json:"disliked"`
	Helpful      bool       `json:"helpful"`
	LikeCount    int        `json:"likeCount"`
	DislikeCount int        `json:"dislikeCount"`
	HelpfulCount int        `json:"helpfulCount"`
}

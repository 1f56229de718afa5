package actors

import (
	"log/slog"
	"time"

	"brew-reviews/internal/feedback"
	"brew-reviews/internal/models"
	"brew-reviews/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Message types for CommentActor
type (
	CreateCommentMsg struct {
		Comment models.NewComment
	}

	EditCommentMsg struct {
		CommentID string
		AuthorID  string
		Content   string
	}

	DeleteCommentMsg struct {
		CommentID string
		AuthorID  string
	}

	GetCommentMsg struct {
		CommentID string
	}

	// GetReviewCommentsMsg answers with []*models.Comment, or with
	// []*models.CommentThread when Thread is set.
	GetReviewCommentsMsg struct {
		ReviewID string
		Thread   bool
	}

	GetUserCommentsMsg struct {
		UserID string
	}
)

// DeleteCommentResponse reports how many comments a delete removed, replies included.
type DeleteCommentResponse struct {
	models.StatusResponse
	Removed int `json:"removed"`
}

// CommentActor manages comment operations
type CommentActor struct {
	base
	comments *feedback.CommentStore
}

func NewCommentActor(deps Deps) actor.Actor {
	return &CommentActor{
		base:     newBase("comment", deps),
		comments: deps.Services.Comments,
	}
}

func (a *CommentActor) Receive(context actor.Context) {
	if a.lifecycle(context) {
		return
	}
	switch msg := context.Message().(type) {
	case *CreateCommentMsg:
		a.handleCreateComment(context, msg)
	case *EditCommentMsg:
		a.handleEditComment(context, msg)
	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)
	case *GetCommentMsg:
		a.handleGetComment(context, msg)
	case *GetReviewCommentsMsg:
		a.handleGetReviewComments(context, msg)
	case *GetUserCommentsMsg:
		a.handleGetUserComments(context, msg)
	default:
		a.unknown(msg)
	}
}

func (a *CommentActor) handleCreateComment(context actor.Context, msg *CreateCommentMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	comment, err := a.comments.Add(ctx, msg.Comment)
	a.respond(context, "create_comment", start, comment, err)
}

func (a *CommentActor) authorize(comment *models.Comment, authorID string) error {
	if comment.UserID == authorID {
		return nil
	}
	a.logger.Info("comment change refused",
		slog.String("comment_id", comment.ID),
		slog.String("requester", authorID),
	)
	return utils.NewForbiddenError("only the author can change this comment")
}

func (a *CommentActor) handleEditComment(context actor.Context, msg *EditCommentMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	comment, err := a.comments.Get(ctx, msg.CommentID)
	if err == nil {
		err = a.authorize(comment, msg.AuthorID)
	}
	if err == nil {
		comment, err = a.comments.Update(ctx, msg.CommentID, msg.Content)
	}
	a.respond(context, "edit_comment", start, comment, err)
}

func (a *CommentActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	comment, err := a.comments.Get(ctx, msg.CommentID)
	if err == nil {
		err = a.authorize(comment, msg.AuthorID)
	}
	removed := 0
	if err == nil {
		removed, err = a.comments.Delete(ctx, msg.CommentID)
	}
	a.respond(context, "delete_comment", start, &DeleteCommentResponse{
		StatusResponse: models.StatusResponse{Success: true, Message: "Comment deleted successfully"},
		Removed:        removed,
	}, err)
}

func (a *CommentActor) handleGetComment(context actor.Context, msg *GetCommentMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	comment, err := a.comments.Get(ctx, msg.CommentID)
	a.respond(context, "get_comment", start, comment, err)
}

func (a *CommentActor) handleGetReviewComments(context actor.Context, msg *GetReviewCommentsMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	if msg.Thread {
		threads, err := a.comments.Thread(ctx, msg.ReviewID)
		a.respond(context, "get_comment_thread", start, threads, err)
		return
	}
	comments, err := a.comments.FetchForReview(ctx, msg.ReviewID)
	a.respond(context, "get_review_comments", start, comments, err)
}

func (a *CommentActor) handleGetUserComments(context actor.Context, msg *GetUserCommentsMsg) {
	start := time.Now()
	ctx, cancel := a.requestContext()
	defer cancel()

	comments, err := a.comments.FetchForUser(ctx, msg.UserID)
	a.respond(context, "get_user_comments", start, comments, err)
}

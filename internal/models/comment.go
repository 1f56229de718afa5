package models

import "time"

type Comment struct {
	ID              string    `json:"id"`
	ReviewID        string    `json:"reviewId"`
	ProductID       string    `json:"productId"`
	UserID          string    `json:"userId"`
	UserName        string    `json:"userName"`
	UserEmail       string    `json:"userEmail"`
	UserAvatar      *string   `json:"userAvatar,omitempty"`
	Content         string    `json:"content"`
	Likes           []string  `json:"likes"`
	Dislikes        []string  `json:"dislikes"`
	ParentCommentID *string   `json:"parentCommentId,omitempty"`
	Verified        bool      `json:"verified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type NewComment struct {
	ReviewID        string
	ProductID       string
	Author          Author
	Content         string
	ParentCommentID *string
}

// CommentThread is a comment with its replies nested below it.
type CommentThread struct {
	*Comment
	Replies []*CommentThread `json:"replies"`
}

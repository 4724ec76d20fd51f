package model

import (
	"errors"
	"time"
)

// Reaction kinds. One reaction per (user, target) pair, replace-on-change.
const (
	ReactionLike  = "like"
	ReactionLaugh = "laugh"
	ReactionAngry = "angry"
)

// ValidReactionKind reports whether kind is a known reaction type.
func ValidReactionKind(kind string) bool {
	switch kind {
	case ReactionLike, ReactionLaugh, ReactionAngry:
		return true
	}
	return false
}

// Reaction is a typed engagement signal attached to a target.
type Reaction struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	TargetKind string    `db:"target_kind" json:"target_kind"`
	TargetID   int64     `db:"target_id" json:"target_id"`
	Kind       string    `db:"kind" json:"kind"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Comment is a reply attached to a target, ordered by creation.
type Comment struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	TargetKind string     `db:"target_kind" json:"target_kind"`
	TargetID   int64      `db:"target_id" json:"target_id"`
	ParentID   *int64     `db:"parent_id" json:"parent_id,omitempty"`
	Body       string     `db:"body" json:"body"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`

	// Joined field
	Author *UserSummary `json:"author,omitempty"`
}

// CommentListResponse is the paginated comment list response.
type CommentListResponse struct {
	Comments   []Comment `json:"comments"`
	NextCursor *string   `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
}

// CreateCommentRequest is the request body for posting a reply.
type CreateCommentRequest struct {
	Body     string `json:"body"`
	ParentID *int64 `json:"parent_id"`
}

const MaxCommentLength = 2200

var (
	ErrInvalidReaction  = errors.New("invalid reaction kind")
	ErrReactionNotFound = errors.New("no reaction to remove")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrEmptyComment     = errors.New("comment body is empty")
	ErrCommentTooLong   = errors.New("comment body too long")
	ErrRateLimited      = errors.New("rate limit exceeded, retry later")
)

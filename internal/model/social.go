package model

import (
	"errors"
	"time"
)

// FollowEdge is a directed follow relationship, unique per ordered pair.
type FollowEdge struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// BlockEdge is a directed block relationship. The edge is directed but the
// effect on visibility is symmetric: a block in either direction makes
// content mutually invisible.
type BlockEdge struct {
	BlockerID int64     `db:"blocker_id" json:"blocker_id"`
	BlockedID int64     `db:"blocked_id" json:"blocked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FollowListResponse is the paginated follower/following list response.
type FollowListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

var (
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
	ErrAlreadyBlocked   = errors.New("already blocking this user")
	ErrNotBlocked       = errors.New("not blocking this user")
	ErrCannotBlockSelf  = errors.New("cannot block yourself")
	ErrBlockedUser      = errors.New("a blocking relationship exists with this user")
)

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Visibility controls who may see an activity item absent blocking.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityFollowers Visibility = "followers"
	VisibilityPrivate   Visibility = "private"
)

// Valid reports whether v is one of the known tiers.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFollowers, VisibilityPrivate:
		return true
	}
	return false
}

// SubjectKind identifies what an activity item is about.
type SubjectKind string

const (
	SubjectMedia  SubjectKind = "media"
	SubjectThread SubjectKind = "thread"
)

// TargetRef identifies an entity that engagement (reactions, comments,
// notifications) can attach to. Comparable, so it works as a map key in
// batched lookups.
type TargetRef struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

func (r TargetRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Target kinds
const (
	TargetLog    = "log"
	TargetThread = "thread"
	TargetUser   = "user"
)

// ActivityItem is the unit the feed is built from: a consumption log,
// optionally carrying a review and a rating.
type ActivityItem struct {
	ID          int64       `db:"id" json:"id"`
	AuthorID    int64       `db:"author_id" json:"author_id"`
	SubjectKind SubjectKind `db:"subject_kind" json:"subject_kind"`
	SubjectID   int64       `db:"subject_id" json:"subject_id"`
	Visibility  Visibility  `db:"visibility" json:"visibility"`
	Body        *string     `db:"body" json:"body,omitempty"`
	Rating      *float64    `db:"rating" json:"rating,omitempty"`
	LoggedAt    time.Time   `db:"logged_at" json:"logged_at"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time  `db:"deleted_at" json:"-"`
}

// HasReview reports whether the item carries free-text review content.
func (a *ActivityItem) HasReview() bool {
	return a.Body != nil && strings.TrimSpace(*a.Body) != ""
}

// Ref returns the engagement target reference for this item.
func (a *ActivityItem) Ref() TargetRef {
	return TargetRef{Kind: TargetLog, ID: a.ID}
}

// CreateLogRequest is the request body for creating a log/review.
type CreateLogRequest struct {
	SubjectKind SubjectKind `json:"subject_kind"`
	SubjectID   int64       `json:"subject_id"`
	Visibility  Visibility  `json:"visibility"`
	Body        *string     `json:"body"`
	Rating      *float64    `json:"rating"`
	LoggedAt    *time.Time  `json:"logged_at"` // defaults to now
}

// Log constraints
const (
	MaxLogBodyLength = 5000
	MinRating        = 0.5
	MaxRating        = 5.0
)

// Activity errors
var (
	ErrLogNotFound       = errors.New("log not found")
	ErrNotLogOwner       = errors.New("not the owner of this log")
	ErrInvalidVisibility = errors.New("invalid visibility tier")
	ErrInvalidRating     = errors.New("rating must be between 0.5 and 5.0 in half steps")
	ErrBodyTooLong       = errors.New("review body too long")
	ErrInvalidSubject    = errors.New("invalid or unknown subject")
)

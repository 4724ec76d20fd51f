package model

import (
	"errors"
	"time"
)

// Notification kinds
const (
	NotifReaction = "reaction"
	NotifReply    = "reply"
	NotifFollow   = "follow"
)

// Notification is a stored in-app notification. IDs are UUIDs assigned by
// the fan-out guard at insert time.
type Notification struct {
	ID          string    `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	ActorID     int64     `db:"actor_id" json:"actor_id"`
	Kind        string    `db:"kind" json:"kind"`
	SubjectKind string    `db:"subject_kind" json:"subject_kind"`
	SubjectID   int64     `db:"subject_id" json:"subject_id"`
	Preview     *string   `db:"preview" json:"preview,omitempty"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Joined field
	Actor *UserSummary `json:"actor,omitempty"`
}

// SubjectRef returns the notification's subject as a target reference.
func (n *Notification) SubjectRef() TargetRef {
	return TargetRef{Kind: n.SubjectKind, ID: n.SubjectID}
}

// NotificationListResponse is the paginated notification list plus unread count.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
	NextCursor    *string        `json:"next_cursor,omitempty"`
	HasMore       bool           `json:"has_more"`
}

var ErrNotificationNotFound = errors.New("notification not found")

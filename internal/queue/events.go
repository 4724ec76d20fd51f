package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"mediashelf/internal/model"
)

// Event types for the activity stream
const (
	EventActivityCreated = "activity_created"
	EventActivityDeleted = "activity_deleted"
	EventReactionAdded   = "reaction_added"
	EventCommentAdded    = "comment_added"
	EventUserFollowed    = "user_followed"
	EventUserBlocked     = "user_blocked"
)

// Stream names
const (
	StreamActivity = "stream:activity"
)

// Consumer group name for activity workers
const (
	ConsumerGroupActivity = "activity_workers"
)

// Event represents an event published to the activity stream. Workers use
// these to run the notification fan-out guard and refresh derived state;
// the synchronous request path never waits on them.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Activity events
	ActivityID  int64  `json:"activity_id,omitempty"`
	AuthorID    int64  `json:"author_id,omitempty"`
	SubjectKind string `json:"subject_kind,omitempty"`
	SubjectID   int64  `json:"subject_id,omitempty"`

	// Engagement events (ReactionAdded, CommentAdded)
	ActorID      int64  `json:"actor_id,omitempty"`
	ReactionKind string `json:"reaction_kind,omitempty"`
	Preview      string `json:"preview,omitempty"`

	// Graph events (UserFollowed, UserBlocked)
	FollowerID int64 `json:"follower_id,omitempty"`
	FolloweeID int64 `json:"followee_id,omitempty"`
	BlockerID  int64 `json:"blocker_id,omitempty"`
	BlockedID  int64 `json:"blocked_id,omitempty"`
}

// NewActivityCreatedEvent is published after a log/review commits.
func NewActivityCreatedEvent(item *model.ActivityItem) Event {
	return Event{
		Type:        EventActivityCreated,
		Timestamp:   time.Now().Unix(),
		ActivityID:  item.ID,
		AuthorID:    item.AuthorID,
		SubjectKind: string(item.SubjectKind),
		SubjectID:   item.SubjectID,
	}
}

// NewActivityDeletedEvent is published after a log is soft-deleted.
func NewActivityDeletedEvent(activityID, authorID int64) Event {
	return Event{
		Type:       EventActivityDeleted,
		Timestamp:  time.Now().Unix(),
		ActivityID: activityID,
		AuthorID:   authorID,
	}
}

// NewReactionAddedEvent carries enough for the worker to notify the target's
// author without re-reading the activity.
func NewReactionAddedEvent(actorID, authorID, activityID int64, kind string) Event {
	return Event{
		Type:         EventReactionAdded,
		Timestamp:    time.Now().Unix(),
		ActorID:      actorID,
		AuthorID:     authorID,
		ActivityID:   activityID,
		ReactionKind: kind,
	}
}

// NewCommentAddedEvent carries a preview of the reply body for the
// notification; the fan-out guard truncates it before storage.
func NewCommentAddedEvent(actorID, authorID, activityID int64, preview string) Event {
	return Event{
		Type:       EventCommentAdded,
		Timestamp:  time.Now().Unix(),
		ActorID:    actorID,
		AuthorID:   authorID,
		ActivityID: activityID,
		Preview:    preview,
	}
}

// NewUserFollowedEvent is published after a follow edge commits.
func NewUserFollowedEvent(followerID, followeeID int64) Event {
	return Event{
		Type:       EventUserFollowed,
		Timestamp:  time.Now().Unix(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// NewUserBlockedEvent is published after a block edge commits.
func NewUserBlockedEvent(blockerID, blockedID int64) Event {
	return Event{
		Type:      EventUserBlocked,
		Timestamp: time.Now().Unix(),
		BlockerID: blockerID,
		BlockedID: blockedID,
	}
}

// ToMap converts the event to a map for Redis XADD. Redis Streams store
// field-value pairs, so we serialize to JSON in a "data" field.
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from Redis stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}

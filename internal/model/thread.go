package model

import (
	"errors"
	"time"
)

// ThreadSummary is the forum thread shape the feed needs when an activity
// item's subject is a discussion thread. Thread CRUD is owned by the forum
// collaborator; the feed only resolves summaries for display.
type ThreadSummary struct {
	ID        int64     `db:"id" json:"id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var ErrThreadNotFound = errors.New("thread not found")

package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"mediashelf/internal/model"
	"mediashelf/internal/queue"
)

// Notifier runs the fan-out guard. The worker never decides suppression
// itself; it just hands the event to the guard.
type Notifier interface {
	// Notify creates a notification unless suppressed, returning the new id
	// or nil when suppressed.
	Notify(ctx context.Context, targetID, actorID int64, kind string, subject model.TargetRef, preview *string) (*string, error)
}

// TrendingInvalidator drops cached trending snapshots after writes that can
// move the board.
type TrendingInvalidator interface {
	Invalidate(ctx context.Context) error
}

// PosterMirror copies an external poster image into our own storage.
type PosterMirror interface {
	MirrorPoster(ctx context.Context, sourceURL string) (string, error)
}

// MediaStore is the slice of the media repository the worker needs for
// poster mirroring.
type MediaStore interface {
	GetByID(ctx context.Context, id int64) (*model.MediaRecord, error)
	SetLocalPoster(ctx context.Context, id int64, url string) error
}

// Handler processes activity stream events: notification fan-out, trending
// invalidation, and poster mirroring. Everything here is off the request
// path; a failed event never surfaces to the user whose write produced it.
type Handler struct {
	notifier Notifier
	trending TrendingInvalidator
	mirror   PosterMirror // nil when R2 is not configured
	media    MediaStore
}

// NewHandler creates a new event handler.
func NewHandler(notifier Notifier, trending TrendingInvalidator, media MediaStore) *Handler {
	return &Handler{
		notifier: notifier,
		trending: trending,
		media:    media,
	}
}

// SetPosterMirror enables poster mirroring (optional, needs R2 config).
func (h *Handler) SetPosterMirror(m PosterMirror) {
	h.mirror = m
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.Event) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventActivityCreated:
		err = h.handleActivityCreated(ctx, event)
	case queue.EventActivityDeleted:
		err = h.handleActivityDeleted(ctx, event)
	case queue.EventReactionAdded:
		err = h.handleReactionAdded(ctx, event)
	case queue.EventCommentAdded:
		err = h.handleCommentAdded(ctx, event)
	case queue.EventUserFollowed:
		err = h.handleUserFollowed(ctx, event)
	case queue.EventUserBlocked:
		err = h.handleUserBlocked(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleActivityCreated refreshes trending and mirrors the subject's poster
// if we don't hold a local copy yet.
func (h *Handler) handleActivityCreated(ctx context.Context, event queue.Event) error {
	log.Printf("[Worker] ActivityCreated: activity=%d author=%d subject=%s:%d",
		event.ActivityID, event.AuthorID, event.SubjectKind, event.SubjectID)

	if err := h.trending.Invalidate(ctx); err != nil {
		log.Printf("[Worker] ActivityCreated: trending invalidate failed: %v", err)
	}

	if event.SubjectKind == string(model.SubjectMedia) {
		if err := h.mirrorPosterIfNeeded(ctx, event.SubjectID); err != nil {
			log.Printf("[Worker] ActivityCreated: poster mirror failed media=%d: %v", event.SubjectID, err)
		}
	}

	return nil
}

func (h *Handler) handleActivityDeleted(ctx context.Context, event queue.Event) error {
	log.Printf("[Worker] ActivityDeleted: activity=%d author=%d", event.ActivityID, event.AuthorID)
	return h.trending.Invalidate(ctx)
}

// handleReactionAdded notifies the log's author through the fan-out guard.
func (h *Handler) handleReactionAdded(ctx context.Context, event queue.Event) error {
	log.Printf("[Worker] ReactionAdded: activity=%d actor=%d author=%d kind=%s",
		event.ActivityID, event.ActorID, event.AuthorID, event.ReactionKind)

	subject := model.TargetRef{Kind: model.TargetLog, ID: event.ActivityID}
	id, err := h.notifier.Notify(ctx, event.AuthorID, event.ActorID, model.NotifReaction, subject, nil)
	if err != nil {
		return fmt.Errorf("reaction notification: %w", err)
	}
	if id == nil {
		log.Printf("[Worker] ReactionAdded: notification suppressed")
	}

	if err := h.trending.Invalidate(ctx); err != nil {
		log.Printf("[Worker] ReactionAdded: trending invalidate failed: %v", err)
	}
	return nil
}

// handleCommentAdded notifies the log's author with a body preview.
func (h *Handler) handleCommentAdded(ctx context.Context, event queue.Event) error {
	log.Printf("[Worker] CommentAdded: activity=%d actor=%d author=%d",
		event.ActivityID, event.ActorID, event.AuthorID)

	subject := model.TargetRef{Kind: model.TargetLog, ID: event.ActivityID}
	var preview *string
	if event.Preview != "" {
		p := event.Preview
		preview = &p
	}

	id, err := h.notifier.Notify(ctx, event.AuthorID, event.ActorID, model.NotifReply, subject, preview)
	if err != nil {
		return fmt.Errorf("reply notification: %w", err)
	}
	if id == nil {
		log.Printf("[Worker] CommentAdded: notification suppressed")
	}
	return nil
}

func (h *Handler) handleUserFollowed(ctx context.Context, event queue.Event) error {
	log.Printf("[Worker] UserFollowed: follower=%d followee=%d", event.FollowerID, event.FolloweeID)

	subject := model.TargetRef{Kind: model.TargetUser, ID: event.FollowerID}
	id, err := h.notifier.Notify(ctx, event.FolloweeID, event.FollowerID, model.NotifFollow, subject, nil)
	if err != nil {
		return fmt.Errorf("follow notification: %w", err)
	}
	if id == nil {
		log.Printf("[Worker] UserFollowed: notification suppressed")
	}
	return nil
}

// handleUserBlocked needs no fan-out: visibility is enforced on every read
// from the resolved graph, so there is no cached state to repair. Logged so
// the stream stays inspectable.
func (h *Handler) handleUserBlocked(_ context.Context, event queue.Event) error {
	log.Printf("[Worker] UserBlocked: blocker=%d blocked=%d", event.BlockerID, event.BlockedID)
	return nil
}

// mirrorPosterIfNeeded copies the external poster once per media record.
func (h *Handler) mirrorPosterIfNeeded(ctx context.Context, mediaID int64) error {
	if h.mirror == nil {
		return nil
	}

	rec, err := h.media.GetByID(ctx, mediaID)
	if err != nil {
		return fmt.Errorf("load media: %w", err)
	}
	if rec.LocalPoster != nil || rec.PosterURL == nil {
		return nil
	}

	url, err := h.mirror.MirrorPoster(ctx, *rec.PosterURL)
	if err != nil {
		return err
	}
	if err := h.media.SetLocalPoster(ctx, mediaID, url); err != nil {
		return fmt.Errorf("store local poster: %w", err)
	}

	log.Printf("[Worker] Poster mirrored: media=%d url=%s", mediaID, url)
	return nil
}

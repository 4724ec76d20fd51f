package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"mediashelf/internal/model"
	"mediashelf/internal/queue"
	"mediashelf/internal/ratelimit"
	"mediashelf/internal/repository"
)

const (
	reactionLimit  = 60
	reactionWindow = time.Minute
)

// ReactionService handles the one-reaction-per-user-per-item toggle.
type ReactionService struct {
	engagementRepo repository.EngagementRepository
	activityRepo   repository.ActivityRepository
	viewerSvc      *ViewerService
	limiter        ratelimit.Limiter
	publisher      queue.Publisher
}

func NewReactionService(
	engagementRepo repository.EngagementRepository,
	activityRepo repository.ActivityRepository,
	viewerSvc *ViewerService,
	limiter ratelimit.Limiter,
	publisher queue.Publisher,
) *ReactionService {
	return &ReactionService{
		engagementRepo: engagementRepo,
		activityRepo:   activityRepo,
		viewerSvc:      viewerSvc,
		limiter:        limiter,
		publisher:      publisher,
	}
}

// React sets the user's reaction on a log, replacing any previous kind. The
// target must be visible to the reactor; otherwise the log reports
// not-found, same as on the read path.
func (s *ReactionService) React(ctx context.Context, userID, logID int64, kind string) error {
	if !model.ValidReactionKind(kind) {
		return model.ErrInvalidReaction
	}

	item, err := s.visibleLog(ctx, userID, logID)
	if err != nil {
		return err
	}

	allowed, err := s.limiter.Allow(ctx, fmt.Sprintf("reaction:%d", userID), reactionLimit, reactionWindow)
	if err != nil {
		log.Printf("[ReactionService] Rate limiter unavailable, allowing: %v", err)
	} else if !allowed {
		return model.ErrRateLimited
	}

	if err := s.engagementRepo.UpsertReaction(ctx, userID, item.Ref(), kind); err != nil {
		return fmt.Errorf("upsert reaction: %w", err)
	}

	if _, err := s.publisher.Publish(ctx, queue.StreamActivity, queue.NewReactionAddedEvent(userID, item.AuthorID, item.ID, kind)); err != nil {
		log.Printf("[ReactionService] Publish reaction_added failed: %v", err)
	}

	log.Printf("[ReactionService] React OK: user=%d log=%d kind=%s", userID, logID, kind)
	return nil
}

// Unreact removes the user's reaction. No event: removal never notifies, and
// the dedup window on the add side absorbs toggle spam.
func (s *ReactionService) Unreact(ctx context.Context, userID, logID int64) error {
	item, err := s.visibleLog(ctx, userID, logID)
	if err != nil {
		return err
	}

	if err := s.engagementRepo.DeleteReaction(ctx, userID, item.Ref()); err != nil {
		return err
	}

	log.Printf("[ReactionService] Unreact OK: user=%d log=%d", userID, logID)
	return nil
}

func (s *ReactionService) visibleLog(ctx context.Context, userID, logID int64) (*model.ActivityItem, error) {
	item, err := s.activityRepo.GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	vc, err := s.viewerSvc.ResolveViewer(ctx, &userID)
	if err != nil {
		return nil, err
	}
	if !CanSee(vc, item) {
		return nil, model.ErrLogNotFound
	}
	return item, nil
}

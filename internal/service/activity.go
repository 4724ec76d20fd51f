package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"mediashelf/internal/model"
	"mediashelf/internal/queue"
	"mediashelf/internal/ratelimit"
	"mediashelf/internal/repository"
)

const (
	logCreateLimit  = 30
	logCreateWindow = time.Hour
)

// ActivityService owns the lifecycle of logs and reviews: the write side of
// everything the feed reads.
type ActivityService struct {
	activityRepo repository.ActivityRepository
	mediaRepo    repository.MediaRepository
	threadRepo   repository.ThreadRepository
	userRepo     repository.UserRepository
	viewerSvc    *ViewerService
	enricher     *Enricher
	limiter      ratelimit.Limiter
	publisher    queue.Publisher
}

func NewActivityService(
	activityRepo repository.ActivityRepository,
	mediaRepo repository.MediaRepository,
	threadRepo repository.ThreadRepository,
	userRepo repository.UserRepository,
	viewerSvc *ViewerService,
	enricher *Enricher,
	limiter ratelimit.Limiter,
	publisher queue.Publisher,
) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		mediaRepo:    mediaRepo,
		threadRepo:   threadRepo,
		userRepo:     userRepo,
		viewerSvc:    viewerSvc,
		enricher:     enricher,
		limiter:      limiter,
		publisher:    publisher,
	}
}

// CreateLog records a consumption log, optionally carrying a review body and
// rating. The item becomes a feed candidate as soon as the insert commits;
// the stream event only drives derived state (trending, poster mirroring).
func (s *ActivityService) CreateLog(ctx context.Context, authorID int64, req model.CreateLogRequest) (*model.ActivityItem, error) {
	startTime := time.Now()

	if err := validateLogRequest(&req); err != nil {
		return nil, err
	}
	if err := s.checkSubjectExists(ctx, req.SubjectKind, req.SubjectID); err != nil {
		return nil, err
	}

	allowed, err := s.limiter.Allow(ctx, fmt.Sprintf("log:%d", authorID), logCreateLimit, logCreateWindow)
	if err != nil {
		// Limiter trouble must not take down the write path
		log.Printf("[ActivityService] Rate limiter unavailable, allowing: %v", err)
	} else if !allowed {
		return nil, model.ErrRateLimited
	}

	loggedAt := time.Now()
	if req.LoggedAt != nil {
		loggedAt = *req.LoggedAt
	}

	item := &model.ActivityItem{
		AuthorID:    authorID,
		SubjectKind: req.SubjectKind,
		SubjectID:   req.SubjectID,
		Visibility:  req.Visibility,
		Body:        normalizeBody(req.Body),
		Rating:      req.Rating,
		LoggedAt:    loggedAt,
	}
	if err := s.activityRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create log: %w", err)
	}

	if err := s.activityRepo.IncrementLogCount(ctx, authorID, 1); err != nil {
		log.Printf("[ActivityService] Increment log count failed: %v", err)
	}

	if _, err := s.publisher.Publish(ctx, queue.StreamActivity, queue.NewActivityCreatedEvent(item)); err != nil {
		log.Printf("[ActivityService] Publish activity_created failed: %v", err)
	}

	log.Printf("[ActivityService] CreateLog OK: id=%d author=%d subject=%s:%d duration=%v",
		item.ID, authorID, item.SubjectKind, item.SubjectID, time.Since(startTime))
	return item, nil
}

// GetLog fetches a single log through the visibility predicate. A log the
// viewer may not see reports not-found rather than forbidden, so restricted
// items don't reveal their existence.
func (s *ActivityService) GetLog(ctx context.Context, viewerID *int64, logID int64) (*model.FeedItem, error) {
	item, err := s.activityRepo.GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}

	vc, err := s.viewerSvc.ResolveViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !CanSee(vc, item) {
		return nil, model.ErrLogNotFound
	}

	enriched, err := s.enricher.Enrich(ctx, vc, []model.ActivityItem{*item})
	if err != nil {
		return nil, err
	}
	if len(enriched) == 0 {
		return nil, model.ErrLogNotFound
	}
	return &enriched[0], nil
}

// GetUserLogs lists a user's own logs, visibility-filtered for the viewer.
func (s *ActivityService) GetUserLogs(ctx context.Context, viewerID *int64, userID int64, limit int) ([]model.FeedItem, error) {
	vc, err := s.viewerSvc.ResolveViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > FeedMaxPageSize {
		limit = FeedDefaultPageSize
	}

	items, err := s.activityRepo.ScanByAuthor(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	visible := items[:0]
	for _, it := range items {
		if CanSee(vc, &it) {
			visible = append(visible, it)
		}
	}

	return s.enricher.Enrich(ctx, vc, visible)
}

// DeleteLog soft-deletes a log. Only the author may delete; the repository
// enforces ownership in the same statement.
func (s *ActivityService) DeleteLog(ctx context.Context, logID, authorID int64) error {
	if err := s.activityRepo.Delete(ctx, logID, authorID); err != nil {
		return err
	}

	if err := s.activityRepo.IncrementLogCount(ctx, authorID, -1); err != nil {
		log.Printf("[ActivityService] Decrement log count failed: %v", err)
	}

	if _, err := s.publisher.Publish(ctx, queue.StreamActivity, queue.NewActivityDeletedEvent(logID, authorID)); err != nil {
		log.Printf("[ActivityService] Publish activity_deleted failed: %v", err)
	}

	log.Printf("[ActivityService] DeleteLog OK: id=%d author=%d", logID, authorID)
	return nil
}

func (s *ActivityService) checkSubjectExists(ctx context.Context, kind model.SubjectKind, id int64) error {
	switch kind {
	case model.SubjectMedia:
		if _, err := s.mediaRepo.GetByID(ctx, id); err != nil {
			return model.ErrInvalidSubject
		}
	case model.SubjectThread:
		if _, err := s.threadRepo.GetByID(ctx, id); err != nil {
			return model.ErrInvalidSubject
		}
	default:
		return model.ErrInvalidSubject
	}
	return nil
}

func validateLogRequest(req *model.CreateLogRequest) error {
	if !req.Visibility.Valid() {
		return model.ErrInvalidVisibility
	}
	if req.Body != nil && len(*req.Body) > model.MaxLogBodyLength {
		return model.ErrBodyTooLong
	}
	if req.Rating != nil {
		r := *req.Rating
		if r < model.MinRating || r > model.MaxRating {
			return model.ErrInvalidRating
		}
		// Half steps only: 0.5, 1.0, ..., 5.0
		if math.Mod(r*2, 1) != 0 {
			return model.ErrInvalidRating
		}
	}
	return nil
}

// normalizeBody maps whitespace-only bodies to nil so HasReview stays an
// honest signal for ranking and the review filter.
func normalizeBody(body *string) *string {
	if body == nil || strings.TrimSpace(*body) == "" {
		return nil
	}
	return body
}

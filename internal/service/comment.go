package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"mediashelf/internal/model"
	"mediashelf/internal/queue"
	"mediashelf/internal/ratelimit"
	"mediashelf/internal/repository"
)

const (
	commentLimit    = 20
	commentWindow   = time.Minute
	commentPageSize = 20
)

// CommentService handles threaded replies on logs.
type CommentService struct {
	engagementRepo repository.EngagementRepository
	activityRepo   repository.ActivityRepository
	userRepo       repository.UserRepository
	viewerSvc      *ViewerService
	limiter        ratelimit.Limiter
	publisher      queue.Publisher
}

func NewCommentService(
	engagementRepo repository.EngagementRepository,
	activityRepo repository.ActivityRepository,
	userRepo repository.UserRepository,
	viewerSvc *ViewerService,
	limiter ratelimit.Limiter,
	publisher queue.Publisher,
) *CommentService {
	return &CommentService{
		engagementRepo: engagementRepo,
		activityRepo:   activityRepo,
		userRepo:       userRepo,
		viewerSvc:      viewerSvc,
		limiter:        limiter,
		publisher:      publisher,
	}
}

// CreateComment adds a reply to a log the commenter can see. A parent id, if
// given, must be a comment on the same log.
func (s *CommentService) CreateComment(ctx context.Context, userID, logID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, model.ErrEmptyComment
	}
	if len(body) > model.MaxCommentLength {
		return nil, model.ErrCommentTooLong
	}

	item, err := s.visibleLog(ctx, userID, logID)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.engagementRepo.GetCommentByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.TargetKind != model.TargetLog || parent.TargetID != logID {
			return nil, model.ErrCommentNotFound
		}
	}

	allowed, err := s.limiter.Allow(ctx, fmt.Sprintf("comment:%d", userID), commentLimit, commentWindow)
	if err != nil {
		log.Printf("[CommentService] Rate limiter unavailable, allowing: %v", err)
	} else if !allowed {
		return nil, model.ErrRateLimited
	}

	comment, err := s.engagementRepo.CreateComment(ctx, userID, item.Ref(), body, req.ParentID)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if author, err := s.userRepo.GetByIDs(ctx, []int64{userID}); err == nil {
		if a, ok := author[userID]; ok {
			comment.Author = &a
		}
	}

	if _, err := s.publisher.Publish(ctx, queue.StreamActivity, queue.NewCommentAddedEvent(userID, item.AuthorID, item.ID, body)); err != nil {
		log.Printf("[CommentService] Publish comment_added failed: %v", err)
	}

	log.Printf("[CommentService] CreateComment OK: id=%d user=%d log=%d", comment.ID, userID, logID)
	return comment, nil
}

// ListComments returns a log's comments oldest first. Visibility of the log
// gates the whole thread.
func (s *CommentService) ListComments(ctx context.Context, viewerID *int64, logID int64, cursor *string) (*model.CommentListResponse, error) {
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

	comments, nextCursor, err := s.engagementRepo.GetComments(ctx, item.Ref(), cursor, commentPageSize)
	if err != nil {
		return nil, err
	}

	authorSet := make(map[int64]struct{}, len(comments))
	for _, c := range comments {
		authorSet[c.UserID] = struct{}{}
	}
	authors, err := s.userRepo.GetByIDs(ctx, setToSlice(authorSet))
	if err != nil {
		return nil, fmt.Errorf("resolve comment authors: %w", err)
	}
	for i := range comments {
		if a, ok := authors[comments[i].UserID]; ok {
			author := a
			comments[i].Author = &author
		}
	}

	return &model.CommentListResponse{
		Comments:   comments,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

func (s *CommentService) visibleLog(ctx context.Context, userID, logID int64) (*model.ActivityItem, error) {
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

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"mediashelf/internal/model"
	"mediashelf/internal/repository"
)

const (
	// DedupWindow suppresses repeat notifications from the same actor for
	// the same subject and kind. Covers toggle spam (react/unreact loops).
	DedupWindow = 2 * time.Minute

	// PreviewMaxLen caps the stored preview, counted in runes
	PreviewMaxLen = 140

	notificationPageSize = 20
)

// NotificationService creates and lists notifications. Creation runs on the
// worker path behind the fan-out guard; delivery failure never affects the
// write that triggered it.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	socialRepo       repository.SocialRepository
	userRepo         repository.UserRepository
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	socialRepo repository.SocialRepository,
	userRepo repository.UserRepository,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		socialRepo:       socialRepo,
		userRepo:         userRepo,
	}
}

// Notify records a notification for targetID about actorID's action, unless
// the guard suppresses it. Returns the new notification id, or nil when
// suppressed. Suppression rules, in order:
//   - self-action: never notify a user about their own activity
//   - block in either direction between actor and target
//   - an identical (actor, kind, subject) notification within DedupWindow
func (s *NotificationService) Notify(ctx context.Context, targetID, actorID int64, kind string, subject model.TargetRef, preview *string) (*string, error) {
	if targetID == actorID {
		return nil, nil
	}

	blocked, err := s.socialRepo.BlockExistsBetween(ctx, targetID, actorID)
	if err != nil {
		return nil, fmt.Errorf("check block for notification: %w", err)
	}
	if blocked {
		return nil, nil
	}

	dup, err := s.notificationRepo.RecentMatch(ctx, targetID, actorID, kind, subject, DedupWindow)
	if err != nil {
		return nil, fmt.Errorf("check duplicate notification: %w", err)
	}
	if dup {
		log.Printf("[NotificationService] Suppressed duplicate: user=%d actor=%d kind=%s", targetID, actorID, kind)
		return nil, nil
	}

	n := &model.Notification{
		ID:          uuid.NewString(),
		UserID:      targetID,
		ActorID:     actorID,
		Kind:        kind,
		SubjectKind: subject.Kind,
		SubjectID:   subject.ID,
		Preview:     truncatePreview(preview),
		CreatedAt:   time.Now(),
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	log.Printf("[NotificationService] Notify OK: id=%s user=%d actor=%d kind=%s", n.ID, targetID, actorID, kind)
	return &n.ID, nil
}

// List returns the user's notifications newest first, with actor summaries
// attached and the current unread count.
func (s *NotificationService) List(ctx context.Context, userID int64, cursor *time.Time) (*model.NotificationListResponse, error) {
	notifications, nextCursor, err := s.notificationRepo.ListForUser(ctx, userID, cursor, notificationPageSize)
	if err != nil {
		return nil, err
	}

	actorSet := make(map[int64]struct{}, len(notifications))
	for _, n := range notifications {
		actorSet[n.ActorID] = struct{}{}
	}
	actors, err := s.userRepo.GetByIDs(ctx, setToSlice(actorSet))
	if err != nil {
		return nil, fmt.Errorf("resolve notification actors: %w", err)
	}
	for i := range notifications {
		if a, ok := actors[notifications[i].ActorID]; ok {
			actor := a
			notifications[i].Actor = &actor
		}
	}

	unread, err := s.notificationRepo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
		NextCursor:    formatTimeCursor(nextCursor),
		HasMore:       nextCursor != nil,
	}, nil
}

// MarkRead marks the given notification ids as read; ids not owned by the
// user are ignored by the repository.
func (s *NotificationService) MarkRead(ctx context.Context, userID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.notificationRepo.MarkAsRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.notificationRepo.MarkAllAsRead(ctx, userID)
}

// truncatePreview caps the preview at PreviewMaxLen runes so multi-byte
// content is never split mid-character.
func truncatePreview(preview *string) *string {
	if preview == nil {
		return nil
	}
	runes := []rune(*preview)
	if len(runes) <= PreviewMaxLen {
		return preview
	}
	truncated := string(runes[:PreviewMaxLen])
	return &truncated
}

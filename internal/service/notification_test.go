package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"mediashelf/internal/model"
)

// =============================================================================
// FAN-OUT GUARD TESTS
// =============================================================================

func newNotificationService(notifRepo *mockNotificationRepo, socialRepo *mockSocialRepo) *NotificationService {
	return NewNotificationService(notifRepo, socialRepo, &mockUserRepo{})
}

func TestNotify_CreatesNotification(t *testing.T) {
	notifRepo := &mockNotificationRepo{}
	svc := newNotificationService(notifRepo, &mockSocialRepo{})

	subject := model.TargetRef{Kind: model.TargetLog, ID: 5}
	id, err := svc.Notify(context.Background(), 1, 2, model.NotifReaction, subject, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if id == nil {
		t.Fatal("expected a notification id, got nil (suppressed)")
	}
	if len(notifRepo.created) != 1 {
		t.Fatalf("created = %d, want 1", len(notifRepo.created))
	}
	n := notifRepo.created[0]
	if n.UserID != 1 || n.ActorID != 2 || n.Kind != model.NotifReaction {
		t.Errorf("stored notification = %+v", n)
	}
	if n.ID == "" {
		t.Error("notification should get an id at insert time")
	}
}

func TestNotify_SuppressesSelfAction(t *testing.T) {
	notifRepo := &mockNotificationRepo{}
	svc := newNotificationService(notifRepo, &mockSocialRepo{})

	id, err := svc.Notify(context.Background(), 7, 7, model.NotifReaction, model.TargetRef{Kind: model.TargetLog, ID: 5}, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if id != nil {
		t.Error("self-action should be suppressed")
	}
	if len(notifRepo.created) != 0 {
		t.Errorf("created = %d, want 0", len(notifRepo.created))
	}
}

func TestNotify_SuppressesWhenBlocked(t *testing.T) {
	notifRepo := &mockNotificationRepo{}
	socialRepo := &mockSocialRepo{
		blockExistsBetweenFn: func(ctx context.Context, userA, userB int64) (bool, error) {
			return true, nil
		},
	}
	svc := newNotificationService(notifRepo, socialRepo)

	id, err := svc.Notify(context.Background(), 1, 2, model.NotifFollow, model.TargetRef{Kind: model.TargetUser, ID: 2}, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if id != nil || len(notifRepo.created) != 0 {
		t.Error("blocked relationship should suppress the notification")
	}
}

func TestNotify_SuppressesDuplicateWithinWindow(t *testing.T) {
	var seenWindow time.Duration
	notifRepo := &mockNotificationRepo{
		recentMatchFn: func(ctx context.Context, userID, actorID int64, kind string, subject model.TargetRef, window time.Duration) (bool, error) {
			seenWindow = window
			return true, nil
		},
	}
	svc := newNotificationService(notifRepo, &mockSocialRepo{})

	id, err := svc.Notify(context.Background(), 1, 2, model.NotifReaction, model.TargetRef{Kind: model.TargetLog, ID: 5}, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if id != nil || len(notifRepo.created) != 0 {
		t.Error("duplicate within the window should be suppressed")
	}
	if seenWindow != DedupWindow {
		t.Errorf("dedup window = %v, want %v", seenWindow, DedupWindow)
	}
}

func TestNotify_TruncatesPreview(t *testing.T) {
	notifRepo := &mockNotificationRepo{}
	svc := newNotificationService(notifRepo, &mockSocialRepo{})

	long := strings.Repeat("héllo", 100) // 500 runes, multi-byte
	id, err := svc.Notify(context.Background(), 1, 2, model.NotifReply, model.TargetRef{Kind: model.TargetLog, ID: 5}, &long)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if id == nil {
		t.Fatal("expected notification, got suppressed")
	}
	stored := notifRepo.created[0].Preview
	if stored == nil {
		t.Fatal("preview missing")
	}
	if got := len([]rune(*stored)); got != PreviewMaxLen {
		t.Errorf("preview runes = %d, want %d", got, PreviewMaxLen)
	}

	short := "fine"
	id, err = svc.Notify(context.Background(), 3, 2, model.NotifReply, model.TargetRef{Kind: model.TargetLog, ID: 6}, &short)
	if err != nil || id == nil {
		t.Fatalf("short preview notify failed: id=%v err=%v", id, err)
	}
	if p := notifRepo.created[1].Preview; p == nil || *p != short {
		t.Errorf("short preview should pass through unchanged, got %v", p)
	}
}

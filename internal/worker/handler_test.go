package worker

import (
	"context"
	"testing"

	"mediashelf/internal/model"
	"mediashelf/internal/queue"
)

// =============================================================================
// EVENT HANDLER TESTS
// =============================================================================

type notifyCall struct {
	TargetID int64
	ActorID  int64
	Kind     string
	Subject  model.TargetRef
	Preview  *string
}

type mockNotifier struct {
	calls []notifyCall
}

func (m *mockNotifier) Notify(ctx context.Context, targetID, actorID int64, kind string, subject model.TargetRef, preview *string) (*string, error) {
	m.calls = append(m.calls, notifyCall{targetID, actorID, kind, subject, preview})
	id := "n1"
	return &id, nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(ctx context.Context) error {
	m.calls++
	return nil
}

type mockMediaStore struct {
	getByIDFn      func(ctx context.Context, id int64) (*model.MediaRecord, error)
	setLocalPoster []string
}

func (m *mockMediaStore) GetByID(ctx context.Context, id int64) (*model.MediaRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrMediaNotFound
}

func (m *mockMediaStore) SetLocalPoster(ctx context.Context, id int64, url string) error {
	m.setLocalPoster = append(m.setLocalPoster, url)
	return nil
}

type mockMirror struct {
	calls []string
}

func (m *mockMirror) MirrorPoster(ctx context.Context, sourceURL string) (string, error) {
	m.calls = append(m.calls, sourceURL)
	return "https://cdn.example/posters/mirrored.jpg", nil
}

func TestHandleEvent_ReactionNotifiesAuthor(t *testing.T) {
	notifier := &mockNotifier{}
	handler := NewHandler(notifier, &mockInvalidator{}, &mockMediaStore{})

	event := queue.NewReactionAddedEvent(5, 9, 42, model.ReactionLike)
	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("notify calls = %d, want 1", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.TargetID != 9 || call.ActorID != 5 {
		t.Errorf("notify target/actor = %d/%d, want 9/5", call.TargetID, call.ActorID)
	}
	if call.Kind != model.NotifReaction {
		t.Errorf("kind = %s, want %s", call.Kind, model.NotifReaction)
	}
	if call.Subject != (model.TargetRef{Kind: model.TargetLog, ID: 42}) {
		t.Errorf("subject = %+v", call.Subject)
	}
}

func TestHandleEvent_CommentCarriesPreview(t *testing.T) {
	notifier := &mockNotifier{}
	handler := NewHandler(notifier, &mockInvalidator{}, &mockMediaStore{})

	event := queue.NewCommentAddedEvent(5, 9, 42, "nice review")
	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	call := notifier.calls[0]
	if call.Kind != model.NotifReply {
		t.Errorf("kind = %s, want %s", call.Kind, model.NotifReply)
	}
	if call.Preview == nil || *call.Preview != "nice review" {
		t.Errorf("preview = %v, want 'nice review'", call.Preview)
	}
}

func TestHandleEvent_FollowNotifiesFollowee(t *testing.T) {
	notifier := &mockNotifier{}
	handler := NewHandler(notifier, &mockInvalidator{}, &mockMediaStore{})

	event := queue.NewUserFollowedEvent(5, 9)
	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	call := notifier.calls[0]
	if call.TargetID != 9 || call.ActorID != 5 || call.Kind != model.NotifFollow {
		t.Errorf("follow notification = %+v", call)
	}
}

func TestHandleEvent_ActivityCreatedInvalidatesAndMirrors(t *testing.T) {
	invalidator := &mockInvalidator{}
	poster := "https://catalog.example/poster.jpg"
	store := &mockMediaStore{
		getByIDFn: func(ctx context.Context, id int64) (*model.MediaRecord, error) {
			return &model.MediaRecord{ID: id, PosterURL: &poster}, nil
		},
	}
	mirror := &mockMirror{}
	handler := NewHandler(&mockNotifier{}, invalidator, store)
	handler.SetPosterMirror(mirror)

	item := &model.ActivityItem{ID: 1, AuthorID: 2, SubjectKind: model.SubjectMedia, SubjectID: 10}
	if err := handler.HandleEvent(context.Background(), queue.NewActivityCreatedEvent(item)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if invalidator.calls != 1 {
		t.Errorf("trending invalidations = %d, want 1", invalidator.calls)
	}
	if len(mirror.calls) != 1 || mirror.calls[0] != poster {
		t.Errorf("mirror calls = %v, want [%s]", mirror.calls, poster)
	}
	if len(store.setLocalPoster) != 1 {
		t.Errorf("local poster updates = %d, want 1", len(store.setLocalPoster))
	}
}

func TestHandleEvent_MirrorSkippedWhenLocalCopyExists(t *testing.T) {
	poster := "https://catalog.example/poster.jpg"
	local := "https://cdn.example/posters/existing.jpg"
	store := &mockMediaStore{
		getByIDFn: func(ctx context.Context, id int64) (*model.MediaRecord, error) {
			return &model.MediaRecord{ID: id, PosterURL: &poster, LocalPoster: &local}, nil
		},
	}
	mirror := &mockMirror{}
	handler := NewHandler(&mockNotifier{}, &mockInvalidator{}, store)
	handler.SetPosterMirror(mirror)

	item := &model.ActivityItem{ID: 1, SubjectKind: model.SubjectMedia, SubjectID: 10}
	if err := handler.HandleEvent(context.Background(), queue.NewActivityCreatedEvent(item)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(mirror.calls) != 0 {
		t.Error("should not re-mirror an already-mirrored poster")
	}
}

func TestHandleEvent_UnknownTypeErrors(t *testing.T) {
	handler := NewHandler(&mockNotifier{}, &mockInvalidator{}, &mockMediaStore{})

	err := handler.HandleEvent(context.Background(), queue.Event{Type: "mystery"})
	if err == nil {
		t.Error("unknown event type should error")
	}
}

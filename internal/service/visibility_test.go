package service

import (
	"testing"

	"mediashelf/internal/model"
)

// =============================================================================
// VISIBILITY PREDICATE TESTS
// =============================================================================

func item(author int64, vis model.Visibility) *model.ActivityItem {
	return &model.ActivityItem{ID: 1, AuthorID: author, Visibility: vis}
}

func TestCanSee_PublicVisibleToAnyone(t *testing.T) {
	vc := viewerWith(10, nil, nil, nil)

	if !CanSee(vc, item(20, model.VisibilityPublic)) {
		t.Error("public item should be visible to a stranger")
	}
	if !CanSee(model.AnonymousViewer(), item(20, model.VisibilityPublic)) {
		t.Error("public item should be visible anonymously")
	}
}

func TestCanSee_FollowersTierRequiresFollow(t *testing.T) {
	follower := viewerWith(10, []int64{20}, nil, nil)
	stranger := viewerWith(11, nil, nil, nil)

	if !CanSee(follower, item(20, model.VisibilityFollowers)) {
		t.Error("followers item should be visible to a follower")
	}
	if CanSee(stranger, item(20, model.VisibilityFollowers)) {
		t.Error("followers item should not be visible to a stranger")
	}
	if CanSee(model.AnonymousViewer(), item(20, model.VisibilityFollowers)) {
		t.Error("followers item should not be visible anonymously")
	}
}

func TestCanSee_PrivateIsOwnerOnly(t *testing.T) {
	owner := viewerWith(20, nil, nil, nil)
	follower := viewerWith(10, []int64{20}, nil, nil)

	if !CanSee(owner, item(20, model.VisibilityPrivate)) {
		t.Error("private item should be visible to its author")
	}
	if CanSee(follower, item(20, model.VisibilityPrivate)) {
		t.Error("private item should not be visible to a follower")
	}
}

// Blocking overrides following in both directions, even when the follow edge
// still exists.
func TestCanSee_BlockOverridesFollow(t *testing.T) {
	// Viewer follows the author but also blocks them
	blockedByViewer := viewerWith(10, []int64{20}, []int64{20}, nil)
	if CanSee(blockedByViewer, item(20, model.VisibilityPublic)) {
		t.Error("public item from a blocked author should be hidden")
	}
	if CanSee(blockedByViewer, item(20, model.VisibilityFollowers)) {
		t.Error("followers item from a blocked author should be hidden despite the follow edge")
	}

	// Author blocks the viewer; the stale follow edge must not matter
	blockedByAuthor := viewerWith(10, []int64{20}, nil, []int64{20})
	if CanSee(blockedByAuthor, item(20, model.VisibilityPublic)) {
		t.Error("public item should be hidden when the author blocks the viewer")
	}
	if CanSee(blockedByAuthor, item(20, model.VisibilityFollowers)) {
		t.Error("followers item should be hidden when the author blocks the viewer")
	}
}

func TestCanSee_SelfAlwaysVisible(t *testing.T) {
	vc := viewerWith(20, nil, nil, nil)

	for _, vis := range []model.Visibility{model.VisibilityPublic, model.VisibilityFollowers, model.VisibilityPrivate} {
		if !CanSee(vc, item(20, vis)) {
			t.Errorf("author should always see their own %s item", vis)
		}
	}
}

func TestCanSee_UnknownTierHidden(t *testing.T) {
	vc := viewerWith(10, []int64{20}, nil, nil)

	if CanSee(vc, item(20, model.Visibility("secret"))) {
		t.Error("unknown visibility tier should be treated as owner-only")
	}
}

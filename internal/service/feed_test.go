package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mediashelf/internal/model"
)

// =============================================================================
// FEED ASSEMBLY TESTS
// =============================================================================

// newFeedService wires a FeedService over the shared mocks.
func newFeedService(activityRepo *mockActivityRepo, socialRepo *mockSocialRepo) *FeedService {
	engagement := &mockEngagementRepo{}
	catalogCache := &mockCatalogCache{}
	enricher := NewEnricher(&mockUserRepo{}, &mockThreadRepo{}, engagement, catalogCache)
	return NewFeedService(
		activityRepo,
		NewViewerService(socialRepo),
		NewRanker(engagement),
		enricher,
		catalogCache,
	)
}

func mediaItem(id, author int64, vis model.Visibility, loggedAt time.Time) model.ActivityItem {
	return model.ActivityItem{
		ID:          id,
		AuthorID:    author,
		SubjectKind: model.SubjectMedia,
		SubjectID:   100 + id,
		Visibility:  vis,
		LoggedAt:    loggedAt,
	}
}

// Viewer follows B(2) and C(3). B has a public item at t=100, C has a
// followers item at t=200, D(4) has a public item at t=300. The home feed is
// [C, B]: D is not followed, and newest comes first.
func TestGetFollowingFeed_NarrowsToFollowedAuthors(t *testing.T) {
	base := time.Unix(1700000000, 0)
	bPublic := mediaItem(1, 2, model.VisibilityPublic, base.Add(100*time.Second))
	cFollowers := mediaItem(2, 3, model.VisibilityFollowers, base.Add(200*time.Second))
	dPublic := mediaItem(3, 4, model.VisibilityPublic, base.Add(300*time.Second))

	activityRepo := &mockActivityRepo{
		scanByVisibilityFn: func(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error) {
			if tier == model.VisibilityPublic {
				return []model.ActivityItem{dPublic, bPublic}, nil
			}
			return []model.ActivityItem{cFollowers}, nil
		},
	}
	socialRepo := &mockSocialRepo{
		followingIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2, 3}, nil
		},
	}
	svc := newFeedService(activityRepo, socialRepo)

	page, err := svc.GetFollowingFeed(context.Background(), 1, model.FeedQuery{IncludeReviews: true})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}
	if page.Items[0].Activity.ID != 2 || page.Items[1].Activity.ID != 1 {
		t.Errorf("order = [%d %d], want [2 1]",
			page.Items[0].Activity.ID, page.Items[1].Activity.ID)
	}
	if page.Truncated {
		t.Error("small candidate set should not report truncated")
	}
}

// Viewer follows B, but B blocks the viewer. Nothing from B appears even
// though the follow edge still exists.
func TestGetFollowingFeed_BlockOverridesStaleFollow(t *testing.T) {
	base := time.Unix(1700000000, 0)
	activityRepo := &mockActivityRepo{
		scanByVisibilityFn: func(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error) {
			if tier == model.VisibilityPublic {
				return []model.ActivityItem{mediaItem(1, 2, model.VisibilityPublic, base)}, nil
			}
			return []model.ActivityItem{mediaItem(2, 2, model.VisibilityFollowers, base)}, nil
		},
	}
	socialRepo := &mockSocialRepo{
		followingIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2}, nil
		},
		blockerIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2}, nil
		},
	}
	svc := newFeedService(activityRepo, socialRepo)

	page, err := svc.GetFollowingFeed(context.Background(), 1, model.FeedQuery{IncludeReviews: true})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("items = %d, want 0 (blocked author)", len(page.Items))
	}
}

// Paging through a stable candidate list must yield every item exactly once.
func TestGetFollowingFeed_PaginationNoDupNoSkip(t *testing.T) {
	base := time.Unix(1700000000, 0)
	var items []model.ActivityItem
	for i := 0; i < 45; i++ {
		items = append(items, mediaItem(int64(i+1), 2, model.VisibilityPublic, base.Add(time.Duration(i)*time.Second)))
	}
	activityRepo := &mockActivityRepo{
		scanByVisibilityFn: func(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error) {
			if tier == model.VisibilityPublic {
				return items, nil
			}
			return nil, nil
		},
	}
	socialRepo := &mockSocialRepo{
		followingIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2}, nil
		},
	}
	svc := newFeedService(activityRepo, socialRepo)

	seen := map[int64]int{}
	cursor := ""
	pages := 0
	for {
		page, err := svc.GetFollowingFeed(context.Background(), 1, model.FeedQuery{
			Cursor:         cursor,
			PageSize:       20,
			IncludeReviews: true,
		})
		if err != nil {
			t.Fatalf("page %d: %v", pages, err)
		}
		for _, it := range page.Items {
			seen[it.Activity.ID]++
		}
		pages++
		if !page.HasMore {
			if page.NextCursor != nil {
				t.Error("last page should have nil cursor")
			}
			break
		}
		if page.NextCursor == nil {
			t.Fatal("hasMore set but cursor missing")
		}
		cursor = *page.NextCursor
	}

	if pages != 3 {
		t.Errorf("pages = %d, want 3 (20+20+5)", pages)
	}
	if len(seen) != 45 {
		t.Errorf("distinct items = %d, want 45", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("item %d seen %d times", id, n)
		}
	}
}

func TestGetFollowingFeed_TruncatedWhenScanHitsCap(t *testing.T) {
	base := time.Unix(1700000000, 0)
	var capped []model.ActivityItem
	for i := 0; i < PublicScanCap; i++ {
		capped = append(capped, mediaItem(int64(i+1), 2, model.VisibilityPublic, base.Add(time.Duration(i)*time.Second)))
	}
	activityRepo := &mockActivityRepo{
		scanByVisibilityFn: func(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error) {
			if tier == model.VisibilityPublic {
				return capped, nil
			}
			return nil, nil
		},
	}
	socialRepo := &mockSocialRepo{
		followingIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2}, nil
		},
	}
	svc := newFeedService(activityRepo, socialRepo)

	page, err := svc.GetFollowingFeed(context.Background(), 1, model.FeedQuery{IncludeReviews: true})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !page.Truncated {
		t.Error("a full public scan should surface truncated=true")
	}
}

func TestGetGlobalFeed_AnonymousAndBlockFilter(t *testing.T) {
	base := time.Unix(1700000000, 0)
	activityRepo := &mockActivityRepo{
		scanByVisibilityFn: func(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error) {
			return []model.ActivityItem{
				mediaItem(1, 2, model.VisibilityPublic, base.Add(time.Second)),
				mediaItem(2, 3, model.VisibilityPublic, base.Add(2*time.Second)),
			}, nil
		},
	}

	// Anonymous viewer sees everything public
	svc := newFeedService(activityRepo, &mockSocialRepo{})
	page, err := svc.GetGlobalFeed(context.Background(), nil, model.FeedQuery{IncludeReviews: true})
	if err != nil {
		t.Fatalf("anonymous: %v", err)
	}
	if len(page.Items) != 2 {
		t.Errorf("anonymous items = %d, want 2", len(page.Items))
	}

	// A viewer who blocks author 3 sees only author 2's item
	blocker := &mockSocialRepo{
		blockedIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{3}, nil
		},
	}
	svc = newFeedService(activityRepo, blocker)
	viewerID := int64(1)
	page, err = svc.GetGlobalFeed(context.Background(), &viewerID, model.FeedQuery{IncludeReviews: true})
	if err != nil {
		t.Fatalf("blocker: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Activity.AuthorID != 2 {
		t.Errorf("blocked author's item leaked into global feed: %+v", page.Items)
	}
}

func TestGetGlobalFeed_ReviewFilter(t *testing.T) {
	base := time.Unix(1700000000, 0)
	review := "great watch"
	plain := mediaItem(1, 2, model.VisibilityPublic, base.Add(time.Second))
	reviewed := mediaItem(2, 2, model.VisibilityPublic, base.Add(2*time.Second))
	reviewed.Body = &review

	activityRepo := &mockActivityRepo{
		scanByVisibilityFn: func(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error) {
			return []model.ActivityItem{plain, reviewed}, nil
		},
	}
	svc := newFeedService(activityRepo, &mockSocialRepo{})

	page, err := svc.GetGlobalFeed(context.Background(), nil, model.FeedQuery{IncludeReviews: false})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Activity.ID != 1 {
		t.Errorf("include_reviews=false should drop review-bearing items, got %+v", page.Items)
	}
}

func TestGetGlobalFeed_MediaTypeFilter(t *testing.T) {
	base := time.Unix(1700000000, 0)
	movie := mediaItem(1, 2, model.VisibilityPublic, base.Add(time.Second))
	game := mediaItem(2, 2, model.VisibilityPublic, base.Add(2*time.Second))

	activityRepo := &mockActivityRepo{
		scanByVisibilityFn: func(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error) {
			return []model.ActivityItem{movie, game}, nil
		},
	}
	svc := newFeedService(activityRepo, &mockSocialRepo{})
	svc.catalogCache = &mockCatalogCache{
		resolveManyFn: func(ctx context.Context, ids []int64) (map[int64]model.MediaRecord, error) {
			out := map[int64]model.MediaRecord{}
			for _, id := range ids {
				mt := model.MediaTypeMovie
				if id == game.SubjectID {
					mt = model.MediaTypeGame
				}
				out[id] = model.MediaRecord{ID: id, MediaType: mt}
			}
			return out, nil
		},
	}

	page, err := svc.GetGlobalFeed(context.Background(), nil, model.FeedQuery{
		IncludeReviews: true,
		MediaTypes:     []string{model.MediaTypeGame},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Activity.ID != 2 {
		t.Errorf("media type filter kept wrong items: %+v", page.Items)
	}
}

// =============================================================================
// PAGINATION PARAMETER CLAMPING
// =============================================================================

func TestClampPageSize(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, FeedDefaultPageSize},
		{-5, 1},
		{1, 1},
		{7, 7},
		{FeedMaxPageSize, FeedMaxPageSize},
		{1000, FeedMaxPageSize},
	}
	for _, c := range cases {
		if got := clampPageSize(c.in); got != c.want {
			t.Errorf("clampPageSize(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseOffsetCursor(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"0", 0},
		{"15", 15},
		{"abc", 0},
		{"-3", 0},
		{"12.5", 0},
	}
	for _, c := range cases {
		if got := parseOffsetCursor(c.in); got != c.want {
			t.Errorf("parseOffsetCursor(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestDedupeByID(t *testing.T) {
	items := []model.ActivityItem{{ID: 1}, {ID: 2}, {ID: 1}, {ID: 3}, {ID: 2}}
	out := dedupeByID(items)
	if len(out) != 3 {
		t.Fatalf("deduped length = %d, want 3", len(out))
	}
	want := []int64{1, 2, 3}
	for i, w := range want {
		if out[i].ID != w {
			t.Errorf("position %d = %d, want %d (first occurrence wins)", i, out[i].ID, w)
		}
	}
}

// Offsets past the end produce an empty page rather than an error.
func TestGetFollowingFeed_CursorPastEnd(t *testing.T) {
	base := time.Unix(1700000000, 0)
	activityRepo := &mockActivityRepo{
		scanByVisibilityFn: func(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error) {
			if tier == model.VisibilityPublic {
				return []model.ActivityItem{mediaItem(1, 2, model.VisibilityPublic, base)}, nil
			}
			return nil, nil
		},
	}
	socialRepo := &mockSocialRepo{
		followingIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2}, nil
		},
	}
	svc := newFeedService(activityRepo, socialRepo)

	page, err := svc.GetFollowingFeed(context.Background(), 1, model.FeedQuery{
		Cursor:         fmt.Sprintf("%d", 9999),
		IncludeReviews: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("past-end cursor: items=%d hasMore=%v, want empty final page", len(page.Items), page.HasMore)
	}
}

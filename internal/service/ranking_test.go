package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mediashelf/internal/model"
)

// =============================================================================
// RANKING TESTS
// =============================================================================

func TestFreshnessMultiplier_DecaysWithAge(t *testing.T) {
	if got := freshnessMultiplier(0); got != 1.0 {
		t.Errorf("multiplier at age 0 = %v, want 1.0", got)
	}
	if got := freshnessMultiplier(24 * time.Hour); got != 0.5 {
		t.Errorf("multiplier at 24h = %v, want 0.5", got)
	}

	// Monotonically non-increasing
	prev := freshnessMultiplier(0)
	for h := 1; h <= 400; h++ {
		cur := freshnessMultiplier(time.Duration(h) * time.Hour)
		if cur > prev {
			t.Fatalf("multiplier increased at %dh: %v > %v", h, cur, prev)
		}
		prev = cur
	}

	// Floor at 0.1 for very old items
	if got := freshnessMultiplier(10000 * time.Hour); got != 0.1 {
		t.Errorf("multiplier floor = %v, want 0.1", got)
	}

	// Clock skew: a future loggedAt must not blow up the score
	if got := freshnessMultiplier(-time.Hour); got != 1.0 {
		t.Errorf("multiplier for negative age = %v, want 1.0", got)
	}
}

func TestEngagementWeight_Modes(t *testing.T) {
	// popular: reactions*2 + comments*3
	if got := engagementWeight(model.SortPopular, 4, 2); got != 14 {
		t.Errorf("popular weight = %v, want 14", got)
	}
	// discussed: comments*5 + reactions
	if got := engagementWeight(model.SortDiscussed, 4, 2); got != 14 {
		t.Errorf("discussed weight = %v, want 14", got)
	}
	// A comment-heavy item beats a reaction-heavy one under discussed
	if engagementWeight(model.SortDiscussed, 10, 0) >= engagementWeight(model.SortDiscussed, 0, 3) {
		t.Error("discussed mode should weight comments over reactions")
	}
}

// An item with 2 reactions scores 4 under popular; an item with 1 comment
// scores 3. With equal freshness the reaction-heavy item ranks first.
func TestRanker_PopularOrdering(t *testing.T) {
	now := time.Now()
	items := []model.ActivityItem{
		{ID: 1, LoggedAt: now.Add(-time.Hour)}, // 1 comment  -> 3
		{ID: 2, LoggedAt: now.Add(-time.Hour)}, // 2 reactions -> 4
	}
	repo := &mockEngagementRepo{
		reactionCountsFn: func(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error) {
			return map[model.TargetRef]int{{Kind: model.TargetLog, ID: 2}: 2}, nil
		},
		commentCountsFn: func(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error) {
			return map[model.TargetRef]int{{Kind: model.TargetLog, ID: 1}: 1}, nil
		},
	}
	ranker := NewRanker(repo)

	ranked := ranker.Rank(context.Background(), items, model.SortPopular, now)

	if ranked[0].ID != 2 || ranked[1].ID != 1 {
		t.Errorf("popular order = [%d %d], want [2 1]", ranked[0].ID, ranked[1].ID)
	}
}

func TestRanker_FreshnessBeatsStaleEngagement(t *testing.T) {
	now := time.Now()
	items := []model.ActivityItem{
		{ID: 1, LoggedAt: now.Add(-1000 * time.Hour)}, // huge but ancient
		{ID: 2, LoggedAt: now.Add(-time.Hour)},        // modest but fresh
	}
	repo := &mockEngagementRepo{
		reactionCountsFn: func(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error) {
			return map[model.TargetRef]int{
				{Kind: model.TargetLog, ID: 1}: 20, // 40 * 0.1 = 4
				{Kind: model.TargetLog, ID: 2}: 3,  // 6 * ~0.96 = ~5.76
			}, nil
		},
	}
	ranker := NewRanker(repo)

	ranked := ranker.Rank(context.Background(), items, model.SortPopular, now)

	if ranked[0].ID != 2 {
		t.Errorf("fresh item should outrank decayed heavy item, got first=%d", ranked[0].ID)
	}
}

func TestRanker_TieBreaksByRecencyThenID(t *testing.T) {
	now := time.Now()
	older := now.Add(-2 * time.Hour)
	items := []model.ActivityItem{
		{ID: 1, LoggedAt: older},
		{ID: 3, LoggedAt: now.Add(-time.Hour)},
		{ID: 2, LoggedAt: older},
	}
	ranker := NewRanker(&mockEngagementRepo{})

	// All scores are zero, so ordering falls to loggedAt desc, then id desc
	ranked := ranker.Rank(context.Background(), items, model.SortPopular, now)

	want := []int64{3, 2, 1}
	for i, w := range want {
		if ranked[i].ID != w {
			t.Fatalf("position %d = %d, want %d", i, ranked[i].ID, w)
		}
	}
}

// When the count lookup fails the WHOLE request falls back to recency; no
// partially-ranked mix.
func TestRanker_FallsBackToRecencyOnCountError(t *testing.T) {
	now := time.Now()
	items := []model.ActivityItem{
		{ID: 1, LoggedAt: now.Add(-3 * time.Hour)},
		{ID: 2, LoggedAt: now.Add(-time.Hour)},
		{ID: 3, LoggedAt: now.Add(-2 * time.Hour)},
	}
	repo := &mockEngagementRepo{
		reactionCountsFn: func(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error) {
			return nil, errors.New("connection refused")
		},
	}
	ranker := NewRanker(repo)

	ranked := ranker.Rank(context.Background(), items, model.SortPopular, now)

	want := []int64{2, 3, 1}
	for i, w := range want {
		if ranked[i].ID != w {
			t.Fatalf("fallback position %d = %d, want %d", i, ranked[i].ID, w)
		}
	}
}

func TestRanker_RecentModeSkipsCounts(t *testing.T) {
	now := time.Now()
	items := []model.ActivityItem{
		{ID: 1, LoggedAt: now.Add(-2 * time.Hour)},
		{ID: 2, LoggedAt: now.Add(-time.Hour)},
	}
	called := false
	repo := &mockEngagementRepo{
		reactionCountsFn: func(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error) {
			called = true
			return nil, nil
		},
	}
	ranker := NewRanker(repo)

	ranked := ranker.Rank(context.Background(), items, model.SortRecent, now)

	if called {
		t.Error("recent mode should not fetch engagement counts")
	}
	if ranked[0].ID != 2 {
		t.Errorf("recent order first = %d, want 2", ranked[0].ID)
	}
}

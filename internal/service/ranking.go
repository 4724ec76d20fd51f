package service

import (
	"context"
	"log"
	"sort"
	"time"

	"mediashelf/internal/model"
	"mediashelf/internal/repository"
)

// Ranker orders a candidate list. Recency is the default; the engagement
// modes re-score every candidate from reaction and comment counts, which is
// acceptable only because candidate sets are already capped upstream.
type Ranker struct {
	engagementRepo repository.EngagementRepository
}

func NewRanker(engagementRepo repository.EngagementRepository) *Ranker {
	return &Ranker{engagementRepo: engagementRepo}
}

// freshnessMultiplier decays an item's engagement score with age. The floor
// of 0.1 keeps old items from collapsing to zero, bounding the advantage of
// recency alone.
func freshnessMultiplier(age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	m := 1.0 / (1.0 + hours/24.0)
	if m < 0.1 {
		return 0.1
	}
	return m
}

// engagementWeight is the raw (pre-decay) score for a sort mode.
func engagementWeight(sortBy model.SortBy, reactions, comments int) float64 {
	switch sortBy {
	case model.SortDiscussed:
		return float64(comments*5 + reactions)
	default: // popular
		return float64(reactions*2 + comments*3)
	}
}

// Rank orders candidates according to sortBy. If the batched count lookup
// fails, the whole request falls back to recency: mixing ranked and unranked
// items would produce an unstable order, so partial scoring is never used.
func (r *Ranker) Rank(ctx context.Context, items []model.ActivityItem, sortBy model.SortBy, now time.Time) []model.ActivityItem {
	if sortBy == model.SortRecent || sortBy == "" || len(items) <= 1 {
		sortByRecency(items)
		return items
	}

	refs := make([]model.TargetRef, len(items))
	for i, it := range items {
		refs[i] = it.Ref()
	}

	reactionCounts, err := r.engagementRepo.ReactionCounts(ctx, refs)
	if err != nil {
		log.Printf("[Ranker] Reaction counts failed, falling back to recency: %v", err)
		sortByRecency(items)
		return items
	}
	commentCounts, err := r.engagementRepo.CommentCounts(ctx, refs)
	if err != nil {
		log.Printf("[Ranker] Comment counts failed, falling back to recency: %v", err)
		sortByRecency(items)
		return items
	}

	scores := make(map[int64]float64, len(items))
	for _, it := range items {
		ref := it.Ref()
		raw := engagementWeight(sortBy, reactionCounts[ref], commentCounts[ref])
		scores[it.ID] = raw * freshnessMultiplier(now.Sub(it.LoggedAt))
	}

	sort.Slice(items, func(i, j int) bool {
		si, sj := scores[items[i].ID], scores[items[j].ID]
		if si != sj {
			return si > sj
		}
		// Equal scores: recency wins ties, then id for determinism
		if !items[i].LoggedAt.Equal(items[j].LoggedAt) {
			return items[i].LoggedAt.After(items[j].LoggedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items
}

// sortByRecency orders descending by loggedAt, id desc as tie-break.
func sortByRecency(items []model.ActivityItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].LoggedAt.Equal(items[j].LoggedAt) {
			return items[i].LoggedAt.After(items[j].LoggedAt)
		}
		return items[i].ID > items[j].ID
	})
}

package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"mediashelf/internal/cache"
	"mediashelf/internal/catalog"
	"mediashelf/internal/model"
	"mediashelf/internal/repository"
)

const (
	// TrendingScanCap bounds the public scan feeding the trending aggregation
	TrendingScanCap = 1000

	// TrendingDefaultLimit is the result size when none is supplied
	TrendingDefaultLimit = 20

	// TrendingMaxLimit is the result size ceiling
	TrendingMaxLimit = 50
)

// TrendingService computes which media titles are most active over a time
// window. Results are cached as whole snapshots keyed by the query shape;
// the worker invalidates on writes, so a snapshot is at most TrendingTTL
// stale and usually fresher.
type TrendingService struct {
	activityRepo   repository.ActivityRepository
	engagementRepo repository.EngagementRepository
	catalogCache   catalog.Cache
	snapshotCache  cache.TrendingCache
}

func NewTrendingService(
	activityRepo repository.ActivityRepository,
	engagementRepo repository.EngagementRepository,
	catalogCache catalog.Cache,
	snapshotCache cache.TrendingCache,
) *TrendingService {
	return &TrendingService{
		activityRepo:   activityRepo,
		engagementRepo: engagementRepo,
		catalogCache:   catalogCache,
		snapshotCache:  snapshotCache,
	}
}

// GetTrending returns media ranked by activity over the query window.
// Only public items count: the board is a public surface and must not leak
// the existence of restricted activity.
func (s *TrendingService) GetTrending(ctx context.Context, q model.TrendingQuery) ([]model.TrendingMedia, error) {
	startTime := time.Now()

	limit := q.Limit
	if limit <= 0 {
		limit = TrendingDefaultLimit
	}
	if limit > TrendingMaxLimit {
		limit = TrendingMaxLimit
	}

	key := cache.Key(q.TimeRange, q.MediaType, limit)
	if cached, ok, err := s.snapshotCache.Get(ctx, key); err != nil {
		// Cache trouble degrades to a recompute, never an error
		log.Printf("[TrendingService] Snapshot read failed, recomputing: %v", err)
	} else if ok {
		log.Printf("[TrendingService] GetTrending OK (cached): key=%s results=%d duration=%v",
			key, len(cached), time.Since(startTime))
		return cached, nil
	}

	results, err := s.compute(ctx, q, limit)
	if err != nil {
		return nil, err
	}

	if err := s.snapshotCache.Set(ctx, key, results); err != nil {
		log.Printf("[TrendingService] Snapshot write failed: %v", err)
	}

	log.Printf("[TrendingService] GetTrending OK: key=%s results=%d duration=%v",
		key, len(results), time.Since(startTime))
	return results, nil
}

func (s *TrendingService) compute(ctx context.Context, q model.TrendingQuery, limit int) ([]model.TrendingMedia, error) {
	since := q.TimeRange.Since(time.Now())

	items, err := s.activityRepo.ScanByVisibility(ctx, model.VisibilityPublic, since, TrendingScanCap)
	if err != nil {
		return nil, fmt.Errorf("scan trending window: %w", err)
	}

	// Group by media title; thread discussion doesn't move the board
	type bucket struct {
		logCount    int
		reviewCount int
		refs        []model.TargetRef
	}
	buckets := make(map[int64]*bucket)
	var allRefs []model.TargetRef
	for _, it := range items {
		if it.SubjectKind != model.SubjectMedia {
			continue
		}
		b := buckets[it.SubjectID]
		if b == nil {
			b = &bucket{}
			buckets[it.SubjectID] = b
		}
		b.logCount++
		if it.HasReview() {
			b.reviewCount++
		}
		ref := it.Ref()
		b.refs = append(b.refs, ref)
		allRefs = append(allRefs, ref)
	}
	if len(buckets) == 0 {
		return []model.TrendingMedia{}, nil
	}

	reactionCounts, err := s.engagementRepo.ReactionCounts(ctx, allRefs)
	if err != nil {
		return nil, fmt.Errorf("count trending reactions: %w", err)
	}

	mediaIDs := make([]int64, 0, len(buckets))
	for id := range buckets {
		mediaIDs = append(mediaIDs, id)
	}
	records, err := s.catalogCache.ResolveMany(ctx, mediaIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve trending media: %w", err)
	}

	results := make([]model.TrendingMedia, 0, len(buckets))
	for id, b := range buckets {
		rec, ok := records[id]
		if !ok {
			continue
		}
		if q.MediaType != nil && rec.MediaType != *q.MediaType {
			continue
		}
		reactions := 0
		for _, ref := range b.refs {
			reactions += reactionCounts[ref]
		}
		results = append(results, model.TrendingMedia{
			Media:         rec,
			TrendingScore: b.logCount + b.reviewCount*3 + reactions*2,
			LogCount:      b.logCount,
			ReviewCount:   b.reviewCount,
			ReactionCount: reactions,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TrendingScore != results[j].TrendingScore {
			return results[i].TrendingScore > results[j].TrendingScore
		}
		return results[i].Media.ID < results[j].Media.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"mediashelf/internal/catalog"
	"mediashelf/internal/model"
	"mediashelf/internal/repository"
)

const (
	// FeedDefaultPageSize is the page size used when none is supplied
	FeedDefaultPageSize = 20

	// FeedMaxPageSize is the server-side page size ceiling
	FeedMaxPageSize = 50

	// PublicScanCap bounds the public-tier candidate scan
	PublicScanCap = 400

	// FollowersScanCap bounds the followers-tier candidate scan
	FollowersScanCap = 300
)

// FeedService assembles and ranks activity feeds. Each call is a stateless
// recompute: candidates are re-fetched, filtered against the viewer's social
// graph, optionally re-ranked, and windowed by an opaque offset cursor.
type FeedService struct {
	activityRepo repository.ActivityRepository
	viewerSvc    *ViewerService
	ranker       *Ranker
	enricher     *Enricher
	catalogCache catalog.Cache
}

func NewFeedService(
	activityRepo repository.ActivityRepository,
	viewerSvc *ViewerService,
	ranker *Ranker,
	enricher *Enricher,
	catalogCache catalog.Cache,
) *FeedService {
	return &FeedService{
		activityRepo: activityRepo,
		viewerSvc:    viewerSvc,
		ranker:       ranker,
		enricher:     enricher,
		catalogCache: catalogCache,
	}
}

// GetFollowingFeed returns the viewer's home feed: recent activity from
// people they follow (plus their own), newest first.
//
// Candidate sourcing is an over-fetch-by-tier trade-off: "followers-tier
// items from people I follow" has no single index without a composite on
// (author, tier), so we scan public items after the time bound and
// followers-tier items system-wide, each under a hard cap, then narrow to
// followed authors in memory. If a scan hits its cap, relevant older items
// are silently omitted and the page reports Truncated.
func (s *FeedService) GetFollowingFeed(ctx context.Context, viewerID int64, q model.FeedQuery) (*model.FeedPage, error) {
	startTime := time.Now()

	vc, err := s.viewerSvc.ResolveViewer(ctx, &viewerID)
	if err != nil {
		return nil, err
	}

	since := q.TimeRange.Since(time.Now())

	var publicItems, followerItems []model.ActivityItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		publicItems, err = s.activityRepo.ScanByVisibility(gctx, model.VisibilityPublic, since, PublicScanCap)
		return err
	})
	g.Go(func() error {
		var err error
		followerItems, err = s.activityRepo.ScanByVisibility(gctx, model.VisibilityFollowers, nil, FollowersScanCap)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch following candidates: %w", err)
	}

	truncated := len(publicItems) >= PublicScanCap || len(followerItems) >= FollowersScanCap

	candidates := dedupeByID(append(publicItems, followerItems...))

	// Narrow to followed authors (and self), then apply the visibility
	// predicate; blocking overrides any stale follow edge.
	narrowed := candidates[:0]
	for _, it := range candidates {
		if !vc.Follows(it.AuthorID) && !vc.IsSelf(it.AuthorID) {
			continue
		}
		if !CanSee(vc, &it) {
			continue
		}
		narrowed = append(narrowed, it)
	}
	candidates = narrowed

	candidates, err = s.applyContentFilters(ctx, candidates, q)
	if err != nil {
		return nil, err
	}

	// The following feed is always recency-ordered
	sortByRecency(candidates)

	page, err := s.window(ctx, vc, candidates, q, truncated)
	if err != nil {
		return nil, err
	}

	log.Printf("[FeedService] GetFollowingFeed OK: user=%d candidates=%d page=%d truncated=%v duration=%v",
		viewerID, len(candidates), len(page.Items), page.Truncated, time.Since(startTime))
	return page, nil
}

// GetGlobalFeed returns the discover feed: public activity system-wide,
// optionally re-ranked by engagement. viewerID may be nil for anonymous
// readers; blocking still filters both directions when a viewer is present.
func (s *FeedService) GetGlobalFeed(ctx context.Context, viewerID *int64, q model.FeedQuery) (*model.FeedPage, error) {
	startTime := time.Now()

	vc, err := s.viewerSvc.ResolveViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	since := q.TimeRange.Since(time.Now())

	candidates, err := s.activityRepo.ScanByVisibility(ctx, model.VisibilityPublic, since, PublicScanCap)
	if err != nil {
		return nil, fmt.Errorf("fetch global candidates: %w", err)
	}
	truncated := len(candidates) >= PublicScanCap

	candidates = dedupeByID(candidates)

	filtered := candidates[:0]
	for _, it := range candidates {
		if vc.BlockedEither(it.AuthorID) {
			continue
		}
		filtered = append(filtered, it)
	}
	candidates = filtered

	candidates, err = s.applyContentFilters(ctx, candidates, q)
	if err != nil {
		return nil, err
	}

	candidates = s.ranker.Rank(ctx, candidates, q.SortBy, time.Now())

	page, err := s.window(ctx, vc, candidates, q, truncated)
	if err != nil {
		return nil, err
	}

	log.Printf("[FeedService] GetGlobalFeed OK: candidates=%d page=%d sort=%s duration=%v",
		len(candidates), len(page.Items), q.SortBy, time.Since(startTime))
	return page, nil
}

// applyContentFilters applies the review flag and the media-type allow-list.
// The type filter resolves the distinct media ids among candidates in one
// batch, never per item; thread-subject items don't match a media-type
// filter and drop out.
func (s *FeedService) applyContentFilters(ctx context.Context, items []model.ActivityItem, q model.FeedQuery) ([]model.ActivityItem, error) {
	if !q.IncludeReviews {
		kept := items[:0]
		for _, it := range items {
			if it.HasReview() {
				continue
			}
			kept = append(kept, it)
		}
		items = kept
	}

	if len(q.MediaTypes) == 0 || len(items) == 0 {
		return items, nil
	}

	allowed := make(map[string]struct{}, len(q.MediaTypes))
	for _, mt := range q.MediaTypes {
		allowed[mt] = struct{}{}
	}

	mediaIDs := make(map[int64]struct{})
	for _, it := range items {
		if it.SubjectKind == model.SubjectMedia {
			mediaIDs[it.SubjectID] = struct{}{}
		}
	}
	records, err := s.catalogCache.ResolveMany(ctx, setToSlice(mediaIDs))
	if err != nil {
		return nil, fmt.Errorf("resolve media for type filter: %w", err)
	}

	kept := items[:0]
	for _, it := range items {
		if it.SubjectKind != model.SubjectMedia {
			continue
		}
		rec, ok := records[it.SubjectID]
		if !ok {
			continue
		}
		if _, ok := allowed[rec.MediaType]; !ok {
			continue
		}
		kept = append(kept, it)
	}
	return kept, nil
}

// window slices the filtered/ordered candidate list into one page and
// enriches it. The cursor is an offset into this request's list, valid only
// against the same filters; concurrent writes between pages can shift items
// (documented limitation of the offset cursor).
func (s *FeedService) window(ctx context.Context, vc *model.ViewerContext, candidates []model.ActivityItem, q model.FeedQuery, truncated bool) (*model.FeedPage, error) {
	offset := parseOffsetCursor(q.Cursor)
	pageSize := clampPageSize(q.PageSize)

	if offset > len(candidates) {
		offset = len(candidates)
	}
	end := offset + pageSize
	if end > len(candidates) {
		end = len(candidates)
	}

	pageItems := candidates[offset:end]
	hasMore := end < len(candidates)

	enriched, err := s.enricher.Enrich(ctx, vc, pageItems)
	if err != nil {
		return nil, err
	}

	page := &model.FeedPage{
		Items:     enriched,
		HasMore:   hasMore,
		Truncated: truncated,
	}
	if hasMore {
		c := strconv.Itoa(end)
		page.NextCursor = &c
	}
	return page, nil
}

// clampPageSize maps any caller-supplied size into [1, FeedMaxPageSize].
// Zero means unset and takes the default; malformed values were already
// mapped to zero at the parse boundary.
func clampPageSize(size int) int {
	if size == 0 {
		return FeedDefaultPageSize
	}
	if size < 1 {
		return 1
	}
	if size > FeedMaxPageSize {
		return FeedMaxPageSize
	}
	return size
}

// parseOffsetCursor decodes the opaque cursor. Malformed or negative values
// clamp to the first page rather than erroring.
func parseOffsetCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// dedupeByID merges candidate sources: an item appearing in more than one
// source contributes once, first occurrence wins.
func dedupeByID(items []model.ActivityItem) []model.ActivityItem {
	seen := make(map[int64]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"mediashelf/internal/catalog"
	"mediashelf/internal/model"
	"mediashelf/internal/repository"
)

// Enricher denormalizes a page of activity items for display. It operates on
// the page only, never the full candidate set, and issues exactly one batched
// lookup per entity kind keyed by the distinct ids present. That keeps the
// enrichment cost independent of page size beyond a constant factor, which
// is a design requirement, not an optimization.
type Enricher struct {
	userRepo       repository.UserRepository
	threadRepo     repository.ThreadRepository
	engagementRepo repository.EngagementRepository
	catalogCache   catalog.Cache
}

func NewEnricher(
	userRepo repository.UserRepository,
	threadRepo repository.ThreadRepository,
	engagementRepo repository.EngagementRepository,
	catalogCache catalog.Cache,
) *Enricher {
	return &Enricher{
		userRepo:       userRepo,
		threadRepo:     threadRepo,
		engagementRepo: engagementRepo,
		catalogCache:   catalogCache,
	}
}

// Enrich resolves author, subject, reaction histogram, comment count, and the
// viewer's own reaction for each page item. Items whose author or subject no
// longer resolves (deleted after candidate selection) are dropped silently;
// a short page is not an error.
func (e *Enricher) Enrich(ctx context.Context, vc *model.ViewerContext, items []model.ActivityItem) ([]model.FeedItem, error) {
	if len(items) == 0 {
		return []model.FeedItem{}, nil
	}
	startTime := time.Now()

	// Collect distinct ids per entity kind
	authorSet := make(map[int64]struct{})
	mediaSet := make(map[int64]struct{})
	threadSet := make(map[int64]struct{})
	refs := make([]model.TargetRef, len(items))
	for i, it := range items {
		authorSet[it.AuthorID] = struct{}{}
		switch it.SubjectKind {
		case model.SubjectMedia:
			mediaSet[it.SubjectID] = struct{}{}
		case model.SubjectThread:
			threadSet[it.SubjectID] = struct{}{}
		}
		refs[i] = it.Ref()
	}

	var (
		authors    map[int64]model.UserSummary
		media      map[int64]model.MediaRecord
		threads    map[int64]model.ThreadSummary
		histograms map[model.TargetRef]map[string]int
		comments   map[model.TargetRef]int
		viewerRx   map[model.TargetRef]string
	)

	// One batched lookup per entity kind, issued concurrently
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authors, err = e.userRepo.GetByIDs(gctx, setToSlice(authorSet))
		return err
	})
	g.Go(func() error {
		var err error
		media, err = e.catalogCache.ResolveMany(gctx, setToSlice(mediaSet))
		return err
	})
	g.Go(func() error {
		var err error
		threads, err = e.threadRepo.GetByIDs(gctx, setToSlice(threadSet))
		return err
	})
	g.Go(func() error {
		var err error
		histograms, err = e.engagementRepo.ReactionHistograms(gctx, refs)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = e.engagementRepo.CommentCounts(gctx, refs)
		return err
	})
	if !vc.IsAnonymous() {
		viewerID := *vc.UserID
		g.Go(func() error {
			var err error
			viewerRx, err = e.engagementRepo.ViewerReactions(gctx, viewerID, refs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich page: %w", err)
	}

	enriched := make([]model.FeedItem, 0, len(items))
	dropped := 0
	for _, it := range items {
		author, ok := authors[it.AuthorID]
		if !ok {
			dropped++
			continue
		}

		fi := model.FeedItem{
			Activity: it,
			Author:   author,
		}

		switch it.SubjectKind {
		case model.SubjectMedia:
			rec, ok := media[it.SubjectID]
			if !ok {
				dropped++
				continue
			}
			fi.Media = &rec
		case model.SubjectThread:
			th, ok := threads[it.SubjectID]
			if !ok {
				dropped++
				continue
			}
			fi.Thread = &th
		}

		ref := it.Ref()
		hist := histograms[ref]
		if hist == nil {
			hist = map[string]int{}
		}
		fi.Reactions = hist
		for _, n := range hist {
			fi.ReactionCount += n
		}
		fi.CommentCount = comments[ref]
		if kind, ok := viewerRx[ref]; ok {
			k := kind
			fi.ViewerReaction = &k
		}

		enriched = append(enriched, fi)
	}

	if dropped > 0 {
		log.Printf("[Enricher] Dropped %d items with unresolved author/subject", dropped)
	}
	log.Printf("[Enricher] Enrich OK: items=%d enriched=%d duration=%v",
		len(items), len(enriched), time.Since(startTime))

	return enriched, nil
}

func setToSlice(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"mediashelf/internal/model"
	"mediashelf/internal/repository"
)

// ViewerService resolves the social graph position of the requesting user:
// who they follow, who they block, and who blocks them. Everything else on
// the read path filters against these sets, so each is fetched with a single
// indexed range scan, never per candidate.
type ViewerService struct {
	socialRepo repository.SocialRepository
}

func NewViewerService(socialRepo repository.SocialRepository) *ViewerService {
	return &ViewerService{socialRepo: socialRepo}
}

// ResolveViewer builds the ViewerContext for a request. Anonymous viewers
// (nil id) get empty sets. The three edge scans have no ordering dependency,
// so they run concurrently and join before returning. A failed scan is a
// hard failure: a feed computed against a partial graph could leak items
// from blocked users.
func (s *ViewerService) ResolveViewer(ctx context.Context, viewerID *int64) (*model.ViewerContext, error) {
	if viewerID == nil {
		return model.AnonymousViewer(), nil
	}

	startTime := time.Now()
	uid := *viewerID

	var following, blocked, blockers []int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		following, err = s.socialRepo.FollowingIDs(gctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		blocked, err = s.socialRepo.BlockedIDs(gctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		blockers, err = s.socialRepo.BlockerIDs(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve viewer graph: %w", err)
	}

	vc := &model.ViewerContext{
		UserID:      viewerID,
		Following:   toSet(following),
		BlockedByMe: toSet(blocked),
		BlocksMe:    toSet(blockers),
	}

	log.Printf("[ViewerService] ResolveViewer OK: user=%d following=%d blocked=%d blockers=%d duration=%v",
		uid, len(vc.Following), len(vc.BlockedByMe), len(vc.BlocksMe), time.Since(startTime))

	return vc, nil
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

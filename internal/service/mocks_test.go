package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"mediashelf/internal/model"
)

// =============================================================================
// SHARED MOCKS
// =============================================================================
//
// The services depend on repository INTERFACES, so tests swap in mocks with
// per-test function fields. Methods without a configured function return a
// zero value, which keeps each test focused on the calls it cares about.

type mockActivityRepo struct {
	createFn           func(ctx context.Context, item *model.ActivityItem) error
	getByIDFn          func(ctx context.Context, id int64) (*model.ActivityItem, error)
	scanByVisibilityFn func(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error)
	scanByAuthorFn     func(ctx context.Context, authorID int64, limit int) ([]model.ActivityItem, error)
}

func (m *mockActivityRepo) Create(ctx context.Context, item *model.ActivityItem) error {
	if m.createFn != nil {
		return m.createFn(ctx, item)
	}
	return nil
}

func (m *mockActivityRepo) GetByID(ctx context.Context, id int64) (*model.ActivityItem, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrLogNotFound
}

func (m *mockActivityRepo) GetByIDs(ctx context.Context, ids []int64) ([]model.ActivityItem, error) {
	return nil, nil
}

func (m *mockActivityRepo) Delete(ctx context.Context, id, authorID int64) error { return nil }

func (m *mockActivityRepo) IncrementLogCount(ctx context.Context, userID int64, delta int) error {
	return nil
}

func (m *mockActivityRepo) ScanByVisibility(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error) {
	if m.scanByVisibilityFn != nil {
		return m.scanByVisibilityFn(ctx, tier, since, limit)
	}
	return nil, nil
}

func (m *mockActivityRepo) ScanByAuthor(ctx context.Context, authorID int64, limit int) ([]model.ActivityItem, error) {
	if m.scanByAuthorFn != nil {
		return m.scanByAuthorFn(ctx, authorID, limit)
	}
	return nil, nil
}

type mockSocialRepo struct {
	followingIDsFn       func(ctx context.Context, userID int64) ([]int64, error)
	blockedIDsFn         func(ctx context.Context, userID int64) ([]int64, error)
	blockerIDsFn         func(ctx context.Context, userID int64) ([]int64, error)
	blockExistsBetweenFn func(ctx context.Context, userA, userB int64) (bool, error)
}

func (m *mockSocialRepo) CreateFollow(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	return true, nil
}

func (m *mockSocialRepo) DeleteFollow(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error {
	return nil
}

func (m *mockSocialRepo) DeleteFollowIfExists(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	return false, nil
}

func (m *mockSocialRepo) FollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.followingIDsFn != nil {
		return m.followingIDsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSocialRepo) FollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (m *mockSocialRepo) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	return map[int64]bool{}, nil
}

func (m *mockSocialRepo) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return nil, nil, nil
}

func (m *mockSocialRepo) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return nil, nil, nil
}

func (m *mockSocialRepo) CreateBlock(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) (bool, error) {
	return true, nil
}

func (m *mockSocialRepo) DeleteBlock(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) error {
	return nil
}

func (m *mockSocialRepo) BlockedIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.blockedIDsFn != nil {
		return m.blockedIDsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSocialRepo) BlockerIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.blockerIDsFn != nil {
		return m.blockerIDsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSocialRepo) BlockExistsBetween(ctx context.Context, userA, userB int64) (bool, error) {
	if m.blockExistsBetweenFn != nil {
		return m.blockExistsBetweenFn(ctx, userA, userB)
	}
	return false, nil
}

type mockEngagementRepo struct {
	reactionCountsFn     func(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error)
	reactionHistogramsFn func(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]map[string]int, error)
	viewerReactionsFn    func(ctx context.Context, userID int64, targets []model.TargetRef) (map[model.TargetRef]string, error)
	commentCountsFn      func(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error)
	upsertReactionFn     func(ctx context.Context, userID int64, target model.TargetRef, kind string) error
}

func (m *mockEngagementRepo) UpsertReaction(ctx context.Context, userID int64, target model.TargetRef, kind string) error {
	if m.upsertReactionFn != nil {
		return m.upsertReactionFn(ctx, userID, target, kind)
	}
	return nil
}

func (m *mockEngagementRepo) DeleteReaction(ctx context.Context, userID int64, target model.TargetRef) error {
	return nil
}

func (m *mockEngagementRepo) ReactionCounts(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error) {
	if m.reactionCountsFn != nil {
		return m.reactionCountsFn(ctx, targets)
	}
	return map[model.TargetRef]int{}, nil
}

func (m *mockEngagementRepo) ReactionHistograms(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]map[string]int, error) {
	if m.reactionHistogramsFn != nil {
		return m.reactionHistogramsFn(ctx, targets)
	}
	return map[model.TargetRef]map[string]int{}, nil
}

func (m *mockEngagementRepo) ViewerReactions(ctx context.Context, userID int64, targets []model.TargetRef) (map[model.TargetRef]string, error) {
	if m.viewerReactionsFn != nil {
		return m.viewerReactionsFn(ctx, userID, targets)
	}
	return map[model.TargetRef]string{}, nil
}

func (m *mockEngagementRepo) CommentCounts(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error) {
	if m.commentCountsFn != nil {
		return m.commentCountsFn(ctx, targets)
	}
	return map[model.TargetRef]int{}, nil
}

func (m *mockEngagementRepo) CreateComment(ctx context.Context, userID int64, target model.TargetRef, body string, parentID *int64) (*model.Comment, error) {
	return &model.Comment{ID: 1, UserID: userID, TargetKind: target.Kind, TargetID: target.ID, Body: body, ParentID: parentID}, nil
}

func (m *mockEngagementRepo) GetComments(ctx context.Context, target model.TargetRef, cursor *string, limit int) ([]model.Comment, *string, error) {
	return nil, nil, nil
}

func (m *mockEngagementRepo) GetCommentByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	return nil, model.ErrCommentNotFound
}

type mockUserRepo struct {
	getByIDFn  func(ctx context.Context, id int64) (*model.User, error)
	getByIDsFn func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	// Default: every requested user exists
	out := make(map[int64]model.UserSummary, len(ids))
	for _, id := range ids {
		out[id] = model.UserSummary{ID: id, Username: "user"}
	}
	return out, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, userID int64, displayName, bio, avatarURL *string) (*model.User, error) {
	return &model.User{ID: userID}, nil
}

func (m *mockUserRepo) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (m *mockUserRepo) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

type mockThreadRepo struct {
	getByIDsFn func(ctx context.Context, ids []int64) (map[int64]model.ThreadSummary, error)
}

func (m *mockThreadRepo) GetByID(ctx context.Context, id int64) (*model.ThreadSummary, error) {
	return nil, model.ErrThreadNotFound
}

func (m *mockThreadRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]model.ThreadSummary, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	out := make(map[int64]model.ThreadSummary, len(ids))
	for _, id := range ids {
		out[id] = model.ThreadSummary{ID: id, Title: "thread"}
	}
	return out, nil
}

type mockCatalogCache struct {
	resolveManyFn func(ctx context.Context, ids []int64) (map[int64]model.MediaRecord, error)
}

func (m *mockCatalogCache) ResolveMany(ctx context.Context, ids []int64) (map[int64]model.MediaRecord, error) {
	if m.resolveManyFn != nil {
		return m.resolveManyFn(ctx, ids)
	}
	out := make(map[int64]model.MediaRecord, len(ids))
	for _, id := range ids {
		out[id] = model.MediaRecord{ID: id, MediaType: model.MediaTypeMovie, Title: "media"}
	}
	return out, nil
}

type mockTrendingCache struct {
	getFn func(ctx context.Context, key string) ([]model.TrendingMedia, bool, error)
	setFn func(ctx context.Context, key string, items []model.TrendingMedia) error
}

func (m *mockTrendingCache) Get(ctx context.Context, key string) ([]model.TrendingMedia, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, false, nil
}

func (m *mockTrendingCache) Set(ctx context.Context, key string, items []model.TrendingMedia) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, items)
	}
	return nil
}

func (m *mockTrendingCache) Invalidate(ctx context.Context) error { return nil }

type mockNotificationRepo struct {
	createFn      func(ctx context.Context, n *model.Notification) error
	recentMatchFn func(ctx context.Context, userID, actorID int64, kind string, subject model.TargetRef, window time.Duration) (bool, error)

	created []*model.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	m.created = append(m.created, n)
	if m.createFn != nil {
		return m.createFn(ctx, n)
	}
	return nil
}

func (m *mockNotificationRepo) RecentMatch(ctx context.Context, userID, actorID int64, kind string, subject model.TargetRef, window time.Duration) (bool, error) {
	if m.recentMatchFn != nil {
		return m.recentMatchFn(ctx, userID, actorID, kind, subject, window)
	}
	return false, nil
}

func (m *mockNotificationRepo) ListForUser(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Notification, *time.Time, error) {
	return nil, nil, nil
}

func (m *mockNotificationRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, userID int64, ids []string) error {
	return nil
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, userID int64) error { return nil }

// viewerWith builds a resolved viewer context directly, skipping the resolver.
func viewerWith(userID int64, following, blockedByMe, blocksMe []int64) *model.ViewerContext {
	vc := &model.ViewerContext{
		UserID:      &userID,
		Following:   map[int64]struct{}{},
		BlockedByMe: map[int64]struct{}{},
		BlocksMe:    map[int64]struct{}{},
	}
	for _, id := range following {
		vc.Following[id] = struct{}{}
	}
	for _, id := range blockedByMe {
		vc.BlockedByMe[id] = struct{}{}
	}
	for _, id := range blocksMe {
		vc.BlocksMe[id] = struct{}{}
	}
	return vc
}

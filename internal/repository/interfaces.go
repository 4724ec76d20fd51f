package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"mediashelf/internal/model"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByIDs returns the users that exist among ids; missing ids are simply
	// absent from the map (deleted accounts drop out of enriched pages).
	GetByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	UpdateProfile(ctx context.Context, userID int64, displayName, bio, avatarURL *string) (*model.User, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
}

// ActivityRepository is the ActivityStore boundary: indexed, capped scans
// plus batched id lookups. Scans are ordered logged_at DESC.
type ActivityRepository interface {
	Create(ctx context.Context, item *model.ActivityItem) error
	GetByID(ctx context.Context, id int64) (*model.ActivityItem, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.ActivityItem, error)
	Delete(ctx context.Context, id, authorID int64) error
	IncrementLogCount(ctx context.Context, userID int64, delta int) error
	// ScanByVisibility is a single indexed range scan over
	// (visibility, logged_at). since may be nil for an unbounded scan.
	ScanByVisibility(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error)
	ScanByAuthor(ctx context.Context, authorID int64, limit int) ([]model.ActivityItem, error)
}

// SocialRepository owns both follow and block edges. Edge reads used on the
// feed path are single indexed range scans, never per-candidate lookups.
type SocialRepository interface {
	CreateFollow(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	DeleteFollow(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error
	// DeleteFollowIfExists removes the edge if present and reports whether it
	// was. Used by the block path, which must not fail on a missing edge.
	DeleteFollowIfExists(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	FollowingIDs(ctx context.Context, userID int64) ([]int64, error)
	FollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)

	CreateBlock(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) (bool, error)
	DeleteBlock(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) error
	// BlockedIDs returns users the given user blocks; BlockerIDs returns
	// users who block the given user.
	BlockedIDs(ctx context.Context, userID int64) ([]int64, error)
	BlockerIDs(ctx context.Context, userID int64) ([]int64, error)
	// BlockExistsBetween checks both directions in one query. Visibility must
	// never rely on follow-edge cleanup having run, so this is the authority.
	BlockExistsBetween(ctx context.Context, userA, userB int64) (bool, error)
}

// EngagementRepository owns reactions and comments. All feed-path reads are
// batched: one query per entity kind keyed by the distinct targets present.
type EngagementRepository interface {
	UpsertReaction(ctx context.Context, userID int64, target model.TargetRef, kind string) error
	DeleteReaction(ctx context.Context, userID int64, target model.TargetRef) error
	ReactionCounts(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error)
	ReactionHistograms(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]map[string]int, error)
	ViewerReactions(ctx context.Context, userID int64, targets []model.TargetRef) (map[model.TargetRef]string, error)
	CommentCounts(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error)

	CreateComment(ctx context.Context, userID int64, target model.TargetRef, body string, parentID *int64) (*model.Comment, error)
	GetComments(ctx context.Context, target model.TargetRef, cursor *string, limit int) ([]model.Comment, *string, error)
	GetCommentByID(ctx context.Context, commentID int64) (*model.Comment, error)
}

// MediaRepository is the local half of the catalog collaborator: cached
// records from the external catalog, keyed by our own ids.
type MediaRepository interface {
	GetByID(ctx context.Context, id int64) (*model.MediaRecord, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]model.MediaRecord, error)
	SetLocalPoster(ctx context.Context, id int64, url string) error
}

type ThreadRepository interface {
	GetByID(ctx context.Context, id int64) (*model.ThreadSummary, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]model.ThreadSummary, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// RecentMatch reports whether an equivalent notification (same target,
	// actor, kind, subject) was created within the trailing window.
	RecentMatch(ctx context.Context, userID, actorID int64, kind string, subject model.TargetRef, window time.Duration) (bool, error)
	ListForUser(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Notification, *time.Time, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkAsRead(ctx context.Context, userID int64, ids []string) error
	MarkAllAsRead(ctx context.Context, userID int64) error
}

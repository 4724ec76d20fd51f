package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"mediashelf/internal/model"
	"mediashelf/internal/queue"
	"mediashelf/internal/repository"
)

const socialPageSize = 20

// SocialService manages follow and block edges. Edge writes and counter
// updates share a transaction; stream events publish only after commit so a
// rollback never fans out.
type SocialService struct {
	db         *sqlx.DB
	socialRepo repository.SocialRepository
	userRepo   repository.UserRepository
	publisher  queue.Publisher
}

func NewSocialService(db *sqlx.DB, socialRepo repository.SocialRepository, userRepo repository.UserRepository, publisher queue.Publisher) *SocialService {
	return &SocialService{
		db:         db,
		socialRepo: socialRepo,
		userRepo:   userRepo,
		publisher:  publisher,
	}
}

func (s *SocialService) Follow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}

	// Following a user who blocks you (or whom you block) is refused the
	// same way their profile is hidden
	blocked, err := s.socialRepo.BlockExistsBetween(ctx, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("check block before follow: %w", err)
	}
	if blocked {
		return model.ErrUserNotFound
	}

	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin follow tx: %w", err)
	}
	defer tx.Rollback()

	created, err := s.socialRepo.CreateFollow(ctx, tx, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	if !created {
		return model.ErrAlreadyFollowing
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, 1); err != nil {
		return fmt.Errorf("increment following count: %w", err)
	}
	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, 1); err != nil {
		return fmt.Errorf("increment follower count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit follow tx: %w", err)
	}

	if _, err := s.publisher.Publish(ctx, queue.StreamActivity, queue.NewUserFollowedEvent(followerID, followeeID)); err != nil {
		log.Printf("[SocialService] Publish user_followed failed: %v", err)
	}

	log.Printf("[SocialService] Follow OK: %d -> %d", followerID, followeeID)
	return nil
}

func (s *SocialService) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unfollow tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.socialRepo.DeleteFollow(ctx, tx, followerID, followeeID); err != nil {
		return err
	}
	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, -1); err != nil {
		return fmt.Errorf("decrement following count: %w", err)
	}
	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, -1); err != nil {
		return fmt.Errorf("decrement follower count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unfollow tx: %w", err)
	}

	log.Printf("[SocialService] Unfollow OK: %d -> %d", followerID, followeeID)
	return nil
}

// Block creates a block edge and severs any follow edges between the two
// users in the same transaction. Visibility never depends on this cleanup
// having run; it keeps the follow counters honest.
func (s *SocialService) Block(ctx context.Context, blockerID, blockedID int64) error {
	if blockerID == blockedID {
		return model.ErrCannotBlockSelf
	}

	if _, err := s.userRepo.GetByID(ctx, blockedID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin block tx: %w", err)
	}
	defer tx.Rollback()

	created, err := s.socialRepo.CreateBlock(ctx, tx, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	if !created {
		return model.ErrAlreadyBlocked
	}

	// Sever follows in both directions, adjusting counters only for edges
	// that actually existed
	removed, err := s.socialRepo.DeleteFollowIfExists(ctx, tx, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("sever follow (blocker->blocked): %w", err)
	}
	if removed {
		if err := s.userRepo.IncrementFollowingCount(ctx, tx, blockerID, -1); err != nil {
			return fmt.Errorf("decrement following count: %w", err)
		}
		if err := s.userRepo.IncrementFollowerCount(ctx, tx, blockedID, -1); err != nil {
			return fmt.Errorf("decrement follower count: %w", err)
		}
	}
	removed, err = s.socialRepo.DeleteFollowIfExists(ctx, tx, blockedID, blockerID)
	if err != nil {
		return fmt.Errorf("sever follow (blocked->blocker): %w", err)
	}
	if removed {
		if err := s.userRepo.IncrementFollowingCount(ctx, tx, blockedID, -1); err != nil {
			return fmt.Errorf("decrement following count: %w", err)
		}
		if err := s.userRepo.IncrementFollowerCount(ctx, tx, blockerID, -1); err != nil {
			return fmt.Errorf("decrement follower count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit block tx: %w", err)
	}

	if _, err := s.publisher.Publish(ctx, queue.StreamActivity, queue.NewUserBlockedEvent(blockerID, blockedID)); err != nil {
		log.Printf("[SocialService] Publish user_blocked failed: %v", err)
	}

	log.Printf("[SocialService] Block OK: %d -> %d", blockerID, blockedID)
	return nil
}

func (s *SocialService) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unblock tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.socialRepo.DeleteBlock(ctx, tx, blockerID, blockedID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unblock tx: %w", err)
	}

	log.Printf("[SocialService] Unblock OK: %d -> %d", blockerID, blockedID)
	return nil
}

// GetFollowers lists a user's followers with the viewer's own follow status
// resolved in one batch.
func (s *SocialService) GetFollowers(ctx context.Context, viewerID, userID int64, cursor *time.Time) (*model.FollowListResponse, error) {
	users, nextCursor, err := s.socialRepo.GetFollowers(ctx, userID, cursor, socialPageSize)
	if err != nil {
		return nil, err
	}
	if err := s.enrichWithFollowStatus(ctx, viewerID, users); err != nil {
		return nil, err
	}
	return &model.FollowListResponse{
		Users:      users,
		NextCursor: formatTimeCursor(nextCursor),
		HasMore:    nextCursor != nil,
	}, nil
}

func (s *SocialService) GetFollowing(ctx context.Context, viewerID, userID int64, cursor *time.Time) (*model.FollowListResponse, error) {
	users, nextCursor, err := s.socialRepo.GetFollowing(ctx, userID, cursor, socialPageSize)
	if err != nil {
		return nil, err
	}
	if err := s.enrichWithFollowStatus(ctx, viewerID, users); err != nil {
		return nil, err
	}
	return &model.FollowListResponse{
		Users:      users,
		NextCursor: formatTimeCursor(nextCursor),
		HasMore:    nextCursor != nil,
	}, nil
}

func formatTimeCursor(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func (s *SocialService) enrichWithFollowStatus(ctx context.Context, viewerID int64, users []model.UserSummary) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	follows, err := s.socialRepo.CheckFollows(ctx, viewerID, ids)
	if err != nil {
		return fmt.Errorf("check follow status: %w", err)
	}
	for i := range users {
		users[i].IsFollowing = follows[users[i].ID]
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mediashelf/internal/model"
)

type socialRepository struct {
	db *sqlx.DB
}

func NewSocialRepository(db *sqlx.DB) SocialRepository {
	return &socialRepository{db: db}
}

func (r *socialRepository) CreateFollow(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to create follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *socialRepository) DeleteFollow(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error {
	deleted, err := r.DeleteFollowIfExists(ctx, tx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrNotFollowing
	}
	return nil
}

func (r *socialRepository) DeleteFollowIfExists(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// FollowingIDs returns every user the given user follows. Single indexed
// range scan on follower_id; the feed path depends on this not being a
// per-candidate lookup.
func (r *socialRepository) FollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT followee_id FROM follows WHERE follower_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get following ids: %w", err)
	}
	return ids, nil
}

func (r *socialRepository) FollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT follower_id FROM follows WHERE followee_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get follower ids: %w", err)
	}
	return ids, nil
}

func (r *socialRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	if len(followeeIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT followee_id FROM follows WHERE follower_id = $1 AND followee_id = ANY($2)`
	var followedIDs []int64
	err := r.db.SelectContext(ctx, &followedIDs, query, followerID, pq.Array(followeeIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check follows: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range followeeIDs {
		result[id] = false
	}
	for _, id := range followedIDs {
		result[id] = true
	}
	return result, nil
}

// GetFollowers retrieves users who follow the specified user with keyset
// pagination on the edge's created_at. Fetches limit+1 to detect more
// results; the last item's timestamp becomes the next cursor.
func (r *socialRepository) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return r.followList(ctx, userID, cursor, limit, true)
}

// GetFollowing retrieves users that the specified user follows. See
// GetFollowers for the pagination approach.
func (r *socialRepository) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return r.followList(ctx, userID, cursor, limit, false)
}

func (r *socialRepository) followList(ctx context.Context, userID int64, cursor *time.Time, limit int, followers bool) ([]model.UserSummary, *time.Time, error) {
	joinCol, whereCol := "f.followee_id", "f.follower_id"
	if followers {
		joinCol, whereCol = "f.follower_id", "f.followee_id"
	}

	var query string
	var args []interface{}
	if cursor == nil {
		query = fmt.Sprintf(`
			SELECT u.id, u.username, u.display_name, u.avatar_url, f.created_at
			FROM follows f
			JOIN users u ON u.id = %s
			WHERE %s = $1
			ORDER BY f.created_at DESC
			LIMIT $2
		`, joinCol, whereCol)
		args = []interface{}{userID, limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT u.id, u.username, u.display_name, u.avatar_url, f.created_at
			FROM follows f
			JOIN users u ON u.id = %s
			WHERE %s = $1 AND f.created_at < $2
			ORDER BY f.created_at DESC
			LIMIT $3
		`, joinCol, whereCol)
		args = []interface{}{userID, cursor, limit + 1}
	}

	type userWithTime struct {
		model.UserSummary
		CreatedAt time.Time `db:"created_at"`
	}

	var results []userWithTime
	err := r.db.SelectContext(ctx, &results, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get follow list: %w", err)
	}

	var users []model.UserSummary
	var nextCursor *time.Time
	if len(results) > limit {
		results = results[:limit]
		nextCursor = &results[len(results)-1].CreatedAt
	}
	for _, result := range results {
		users = append(users, result.UserSummary)
	}
	return users, nextCursor, nil
}

func (r *socialRepository) CreateBlock(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) (bool, error) {
	query := `
		INSERT INTO blocks (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, blockerID, blockedID)
	if err != nil {
		return false, fmt.Errorf("failed to create block: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *socialRepository) DeleteBlock(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) error {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotBlocked
	}
	return nil
}

func (r *socialRepository) BlockedIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT blocked_id FROM blocks WHERE blocker_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get blocked ids: %w", err)
	}
	return ids, nil
}

func (r *socialRepository) BlockerIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT blocker_id FROM blocks WHERE blocked_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get blocker ids: %w", err)
	}
	return ids, nil
}

// BlockExistsBetween checks for a block edge in either direction with one
// query. Follow edges are deleted when a block is created, but visibility
// must not rely on that cleanup having run.
func (r *socialRepository) BlockExistsBetween(ctx context.Context, userA, userB int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userA, userB)
	if err != nil {
		return false, fmt.Errorf("check block between: %w", err)
	}
	return exists, nil
}

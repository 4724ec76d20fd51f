package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mediashelf/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, username, display_name, avatar_url, bio,
		       follower_count, following_count, log_count, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetByIDs batch-resolves user summaries. Missing ids are absent from the
// map, which is how enrichment drops items whose author was deleted.
func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	if len(ids) == 0 {
		return map[int64]model.UserSummary{}, nil
	}

	query := `
		SELECT id, username, display_name, avatar_url
		FROM users
		WHERE id = ANY($1)
	`
	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}

	result := make(map[int64]model.UserSummary, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// UpdateProfile applies only the non-nil fields and returns the updated row.
func (r *userRepository) UpdateProfile(ctx context.Context, userID int64, displayName, bio, avatarURL *string) (*model.User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE($2, display_name),
		    bio          = COALESCE($3, bio),
		    avatar_url   = COALESCE($4, avatar_url),
		    updated_at   = NOW()
		WHERE id = $1
		RETURNING id, username, display_name, avatar_url, bio,
		          follower_count, following_count, log_count, created_at, updated_at
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, userID, displayName, bio, avatarURL)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &user, nil
}

func (r *userRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET follower_count = follower_count + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("update follower count: %w", err)
	}
	return nil
}

func (r *userRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET following_count = following_count + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("update following count: %w", err)
	}
	return nil
}

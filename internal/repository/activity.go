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

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepository{db: db}
}

const activityColumns = `id, author_id, subject_kind, subject_id, visibility, body, rating, logged_at, created_at, updated_at`

// Create inserts a new activity item.
func (r *activityRepository) Create(ctx context.Context, item *model.ActivityItem) error {
	query := `
		INSERT INTO activity_items (author_id, subject_kind, subject_id, visibility, body, rating, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + activityColumns + `
	`
	err := r.db.GetContext(ctx, item, query,
		item.AuthorID, item.SubjectKind, item.SubjectID, item.Visibility, item.Body, item.Rating, item.LoggedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id int64) (*model.ActivityItem, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_items
		WHERE id = $1 AND deleted_at IS NULL
	`
	var item model.ActivityItem
	err := r.db.GetContext(ctx, &item, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return &item, nil
}

// GetByIDs retrieves multiple items, re-ordered to match the input order.
func (r *activityRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.ActivityItem, error) {
	if len(ids) == 0 {
		return []model.ActivityItem{}, nil
	}

	query := `
		SELECT ` + activityColumns + `
		FROM activity_items
		WHERE id = ANY($1) AND deleted_at IS NULL
	`
	var items []model.ActivityItem
	err := r.db.SelectContext(ctx, &items, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get activities by ids: %w", err)
	}

	byID := make(map[int64]model.ActivityItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ordered := make([]model.ActivityItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

// Delete performs a soft delete, verifying ownership.
func (r *activityRepository) Delete(ctx context.Context, id, authorID int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE activity_items SET deleted_at = NOW()
		WHERE id = $1 AND author_id = $2 AND deleted_at IS NULL
	`, id, authorID)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM activity_items WHERE id = $1 AND deleted_at IS NULL)`, id)
		if exists {
			return model.ErrNotLogOwner
		}
		return model.ErrLogNotFound
	}
	return nil
}

func (r *activityRepository) IncrementLogCount(ctx context.Context, userID int64, delta int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET log_count = log_count + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("update log count: %w", err)
	}
	return nil
}

// ScanByVisibility is the candidate-source scan: one indexed range scan over
// (visibility, logged_at DESC), hard-capped by limit. Items beyond the cap
// are silently omitted; callers surface this via FeedPage.Truncated.
func (r *activityRepository) ScanByVisibility(ctx context.Context, tier model.Visibility, since *time.Time, limit int) ([]model.ActivityItem, error) {
	var items []model.ActivityItem
	var err error

	if since == nil {
		query := `
			SELECT ` + activityColumns + `
			FROM activity_items
			WHERE visibility = $1 AND deleted_at IS NULL
			ORDER BY logged_at DESC, id DESC
			LIMIT $2
		`
		err = r.db.SelectContext(ctx, &items, query, tier, limit)
	} else {
		query := `
			SELECT ` + activityColumns + `
			FROM activity_items
			WHERE visibility = $1 AND logged_at >= $2 AND deleted_at IS NULL
			ORDER BY logged_at DESC, id DESC
			LIMIT $3
		`
		err = r.db.SelectContext(ctx, &items, query, tier, since, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("scan by visibility: %w", err)
	}
	return items, nil
}

func (r *activityRepository) ScanByAuthor(ctx context.Context, authorID int64, limit int) ([]model.ActivityItem, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_items
		WHERE author_id = $1 AND deleted_at IS NULL
		ORDER BY logged_at DESC, id DESC
		LIMIT $2
	`
	var items []model.ActivityItem
	err := r.db.SelectContext(ctx, &items, query, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("scan by author: %w", err)
	}
	return items, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mediashelf/internal/model"
)

type engagementRepository struct {
	db *sqlx.DB
}

func NewEngagementRepository(db *sqlx.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// UpsertReaction writes the user's reaction, replacing any previous one for
// the same target (one reaction per (user, target) pair).
func (r *engagementRepository) UpsertReaction(ctx context.Context, userID int64, target model.TargetRef, kind string) error {
	query := `
		INSERT INTO reactions (user_id, target_kind, target_id, kind)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, target_kind, target_id)
		DO UPDATE SET kind = EXCLUDED.kind, created_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, userID, target.Kind, target.ID, kind)
	if err != nil {
		return fmt.Errorf("upsert reaction: %w", err)
	}
	return nil
}

func (r *engagementRepository) DeleteReaction(ctx context.Context, userID int64, target model.TargetRef) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reactions WHERE user_id = $1 AND target_kind = $2 AND target_id = $3`,
		userID, target.Kind, target.ID)
	if err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrReactionNotFound
	}
	return nil
}

// groupTargets splits mixed-kind target lists so each kind can be fetched
// with a single ANY($1) query. In practice there are at most two kinds.
func groupTargets(targets []model.TargetRef) map[string][]int64 {
	grouped := make(map[string][]int64)
	for _, t := range targets {
		grouped[t.Kind] = append(grouped[t.Kind], t.ID)
	}
	return grouped
}

// ReactionCounts returns total reaction counts for the given targets in one
// query per target kind. Targets with no reactions map to zero.
func (r *engagementRepository) ReactionCounts(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error) {
	result := make(map[model.TargetRef]int, len(targets))
	for _, t := range targets {
		result[t] = 0
	}

	for kind, ids := range groupTargets(targets) {
		query := `
			SELECT target_id, COUNT(*) AS count
			FROM reactions
			WHERE target_kind = $1 AND target_id = ANY($2)
			GROUP BY target_id
		`
		type row struct {
			TargetID int64 `db:"target_id"`
			Count    int   `db:"count"`
		}
		var rows []row
		err := r.db.SelectContext(ctx, &rows, query, kind, pq.Array(ids))
		if err != nil {
			return nil, fmt.Errorf("reaction counts: %w", err)
		}
		for _, rw := range rows {
			result[model.TargetRef{Kind: kind, ID: rw.TargetID}] = rw.Count
		}
	}
	return result, nil
}

// ReactionHistograms returns per-type reaction counts for the given targets.
func (r *engagementRepository) ReactionHistograms(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]map[string]int, error) {
	result := make(map[model.TargetRef]map[string]int, len(targets))
	for _, t := range targets {
		result[t] = map[string]int{}
	}

	for kind, ids := range groupTargets(targets) {
		query := `
			SELECT target_id, kind, COUNT(*) AS count
			FROM reactions
			WHERE target_kind = $1 AND target_id = ANY($2)
			GROUP BY target_id, kind
		`
		type row struct {
			TargetID int64  `db:"target_id"`
			Kind     string `db:"kind"`
			Count    int    `db:"count"`
		}
		var rows []row
		err := r.db.SelectContext(ctx, &rows, query, kind, pq.Array(ids))
		if err != nil {
			return nil, fmt.Errorf("reaction histograms: %w", err)
		}
		for _, rw := range rows {
			result[model.TargetRef{Kind: kind, ID: rw.TargetID}][rw.Kind] = rw.Count
		}
	}
	return result, nil
}

// ViewerReactions returns the viewer's own reaction kind per target, for
// targets the viewer has reacted to.
func (r *engagementRepository) ViewerReactions(ctx context.Context, userID int64, targets []model.TargetRef) (map[model.TargetRef]string, error) {
	result := make(map[model.TargetRef]string)

	for kind, ids := range groupTargets(targets) {
		query := `
			SELECT target_id, kind
			FROM reactions
			WHERE user_id = $1 AND target_kind = $2 AND target_id = ANY($3)
		`
		type row struct {
			TargetID int64  `db:"target_id"`
			Kind     string `db:"kind"`
		}
		var rows []row
		err := r.db.SelectContext(ctx, &rows, query, userID, kind, pq.Array(ids))
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("viewer reactions: %w", err)
		}
		for _, rw := range rows {
			result[model.TargetRef{Kind: kind, ID: rw.TargetID}] = rw.Kind
		}
	}
	return result, nil
}

func (r *engagementRepository) CommentCounts(ctx context.Context, targets []model.TargetRef) (map[model.TargetRef]int, error) {
	result := make(map[model.TargetRef]int, len(targets))
	for _, t := range targets {
		result[t] = 0
	}

	for kind, ids := range groupTargets(targets) {
		query := `
			SELECT target_id, COUNT(*) AS count
			FROM comments
			WHERE target_kind = $1 AND target_id = ANY($2) AND deleted_at IS NULL
			GROUP BY target_id
		`
		type row struct {
			TargetID int64 `db:"target_id"`
			Count    int   `db:"count"`
		}
		var rows []row
		err := r.db.SelectContext(ctx, &rows, query, kind, pq.Array(ids))
		if err != nil {
			return nil, fmt.Errorf("comment counts: %w", err)
		}
		for _, rw := range rows {
			result[model.TargetRef{Kind: kind, ID: rw.TargetID}] = rw.Count
		}
	}
	return result, nil
}

func (r *engagementRepository) CreateComment(ctx context.Context, userID int64, target model.TargetRef, body string, parentID *int64) (*model.Comment, error) {
	query := `
		INSERT INTO comments (user_id, target_kind, target_id, parent_id, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, target_kind, target_id, parent_id, body, created_at
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, userID, target.Kind, target.ID, parentID, body)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

// GetComments lists comments for a target with keyset pagination on
// (created_at, id), oldest first (discussion order).
func (r *engagementRepository) GetComments(ctx context.Context, target model.TargetRef, cursor *string, limit int) ([]model.Comment, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT c.id, c.user_id, c.target_kind, c.target_id, c.parent_id, c.body, c.created_at,
			       u.id AS "author.id", u.username AS "author.username",
			       u.display_name AS "author.display_name", u.avatar_url AS "author.avatar_url"
			FROM comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.target_kind = $1 AND c.target_id = $2 AND c.deleted_at IS NULL
			ORDER BY c.created_at ASC, c.id ASC
			LIMIT $3
		`
		args = []interface{}{target.Kind, target.ID, limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT c.id, c.user_id, c.target_kind, c.target_id, c.parent_id, c.body, c.created_at,
			       u.id AS "author.id", u.username AS "author.username",
			       u.display_name AS "author.display_name", u.avatar_url AS "author.avatar_url"
			FROM comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.target_kind = $1 AND c.target_id = $2 AND c.deleted_at IS NULL
			  AND (c.created_at, c.id) > ($3, $4)
			ORDER BY c.created_at ASC, c.id ASC
			LIMIT $5
		`
		args = []interface{}{target.Kind, target.ID, ts, id, limit + 1}
	}

	type commentRow struct {
		model.Comment
		AuthorID       int64   `db:"author.id"`
		AuthorUsername string  `db:"author.username"`
		AuthorDisplay  *string `db:"author.display_name"`
		AuthorAvatar   *string `db:"author.avatar_url"`
	}

	var rows []commentRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get comments: %w", err)
	}

	var nextCursor *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		c := formatCursor(last.CreatedAt, last.Comment.ID)
		nextCursor = &c
	}

	comments := make([]model.Comment, len(rows))
	for i, rw := range rows {
		c := rw.Comment
		c.Author = &model.UserSummary{
			ID:          rw.AuthorID,
			Username:    rw.AuthorUsername,
			DisplayName: rw.AuthorDisplay,
			AvatarURL:   rw.AuthorAvatar,
		}
		comments[i] = c
	}
	return comments, nextCursor, nil
}

func (r *engagementRepository) GetCommentByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	query := `
		SELECT id, user_id, target_kind, target_id, parent_id, body, created_at
		FROM comments
		WHERE id = $1 AND deleted_at IS NULL
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// Helper: parse compound cursor "id:timestamp"
func parseCursor(cursor string) (time.Time, int64, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid cursor format")
	}
	var id int64
	var ts int64
	if _, err := fmt.Sscanf(parts[0], "%d", &id); err != nil {
		return time.Time{}, 0, err
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &ts); err != nil {
		return time.Time{}, 0, err
	}
	return time.Unix(ts, 0), id, nil
}

// Helper: format compound cursor "id:timestamp"
func formatCursor(t time.Time, id int64) string {
	return fmt.Sprintf("%d:%d", id, t.Unix())
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mediashelf/internal/model"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts a notification. The caller (the fan-out guard) assigns the
// UUID and has already applied the suppression rules.
func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, actor_id, kind, subject_kind, subject_id, preview)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.GetContext(ctx, &n.CreatedAt, query,
		n.ID, n.UserID, n.ActorID, n.Kind, n.SubjectKind, n.SubjectID, n.Preview)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// RecentMatch reports whether an equivalent notification exists inside the
// trailing dedup window. Indexed on (user_id, actor_id, kind, created_at).
func (r *notificationRepository) RecentMatch(ctx context.Context, userID, actorID int64, kind string, subject model.TargetRef, window time.Duration) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND actor_id = $2 AND kind = $3
			  AND subject_kind = $4 AND subject_id = $5
			  AND created_at > NOW() - $6::interval
		)
	`
	interval := fmt.Sprintf("%d milliseconds", window.Milliseconds())
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, actorID, kind, subject.Kind, subject.ID, interval)
	if err != nil {
		return false, fmt.Errorf("check recent notification: %w", err)
	}
	return exists, nil
}

// ListForUser returns notifications with actor info, keyset paginated on
// created_at, newest first.
func (r *notificationRepository) ListForUser(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Notification, *time.Time, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT n.id, n.user_id, n.actor_id, n.kind, n.subject_kind, n.subject_id,
			       n.preview, n.is_read, n.created_at,
			       u.id AS "actor.id", u.username AS "actor.username",
			       u.display_name AS "actor.display_name", u.avatar_url AS "actor.avatar_url"
			FROM notifications n
			JOIN users u ON u.id = n.actor_id
			WHERE n.user_id = $1
			ORDER BY n.created_at DESC
			LIMIT $2
		`
		args = []interface{}{userID, limit + 1}
	} else {
		query = `
			SELECT n.id, n.user_id, n.actor_id, n.kind, n.subject_kind, n.subject_id,
			       n.preview, n.is_read, n.created_at,
			       u.id AS "actor.id", u.username AS "actor.username",
			       u.display_name AS "actor.display_name", u.avatar_url AS "actor.avatar_url"
			FROM notifications n
			JOIN users u ON u.id = n.actor_id
			WHERE n.user_id = $1 AND n.created_at < $2
			ORDER BY n.created_at DESC
			LIMIT $3
		`
		args = []interface{}{userID, cursor, limit + 1}
	}

	type notifRow struct {
		model.Notification
		ActorIDJoined  int64   `db:"actor.id"`
		ActorUsername  string  `db:"actor.username"`
		ActorDisplay   *string `db:"actor.display_name"`
		ActorAvatarURL *string `db:"actor.avatar_url"`
	}

	var rows []notifRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("list notifications: %w", err)
	}

	var nextCursor *time.Time
	if len(rows) > limit {
		rows = rows[:limit]
		nextCursor = &rows[len(rows)-1].Notification.CreatedAt
	}

	notifications := make([]model.Notification, len(rows))
	for i, rw := range rows {
		n := rw.Notification
		n.Actor = &model.UserSummary{
			ID:          rw.ActorIDJoined,
			Username:    rw.ActorUsername,
			DisplayName: rw.ActorDisplay,
			AvatarURL:   rw.ActorAvatarURL,
		}
		notifications[i] = n
	}
	return notifications, nextCursor, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, userID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND id = ANY($2)`,
		userID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark as read: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("mark all as read: %w", err)
	}
	return nil
}

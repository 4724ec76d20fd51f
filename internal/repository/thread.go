package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mediashelf/internal/model"
)

type threadRepository struct {
	db *sqlx.DB
}

func NewThreadRepository(db *sqlx.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) GetByID(ctx context.Context, id int64) (*model.ThreadSummary, error) {
	var thread model.ThreadSummary
	err := r.db.GetContext(ctx, &thread,
		`SELECT id, author_id, title, created_at FROM threads WHERE id = $1 AND deleted_at IS NULL`, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	return &thread, nil
}

func (r *threadRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]model.ThreadSummary, error) {
	if len(ids) == 0 {
		return map[int64]model.ThreadSummary{}, nil
	}

	var threads []model.ThreadSummary
	err := r.db.SelectContext(ctx, &threads,
		`SELECT id, author_id, title, created_at FROM threads WHERE id = ANY($1) AND deleted_at IS NULL`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get threads by ids: %w", err)
	}

	result := make(map[int64]model.ThreadSummary, len(threads))
	for _, t := range threads {
		result[t.ID] = t
	}
	return result, nil
}

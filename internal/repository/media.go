package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mediashelf/internal/model"
)

type mediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) MediaRepository {
	return &mediaRepository{db: db}
}

const mediaColumns = `id, external_id, media_type, title, release_year, poster_url, local_poster, created_at, updated_at`

func (r *mediaRepository) GetByID(ctx context.Context, id int64) (*model.MediaRecord, error) {
	var record model.MediaRecord
	err := r.db.GetContext(ctx, &record,
		`SELECT `+mediaColumns+` FROM media WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return &record, nil
}

// GetByIDs batch-resolves media records; missing ids are absent from the map.
func (r *mediaRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]model.MediaRecord, error) {
	if len(ids) == 0 {
		return map[int64]model.MediaRecord{}, nil
	}

	var records []model.MediaRecord
	err := r.db.SelectContext(ctx, &records,
		`SELECT `+mediaColumns+` FROM media WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get media by ids: %w", err)
	}

	result := make(map[int64]model.MediaRecord, len(records))
	for _, rec := range records {
		result[rec.ID] = rec
	}
	return result, nil
}

func (r *mediaRepository) SetLocalPoster(ctx context.Context, id int64, url string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE media SET local_poster = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("set local poster: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrMediaNotFound
	}
	return nil
}

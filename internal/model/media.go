package model

import (
	"errors"
	"time"
)

// Media types
const (
	MediaTypeMovie = "movie"
	MediaTypeShow  = "show"
	MediaTypeGame  = "game"
	MediaTypeMusic = "music"
)

// MediaRecord is a cached entry from the external media catalog. The catalog
// itself is an external collaborator; we keep a local copy plus a mirrored
// poster so feed reads never depend on the third-party API.
type MediaRecord struct {
	ID          int64     `db:"id" json:"id"`
	ExternalID  string    `db:"external_id" json:"external_id"`
	MediaType   string    `db:"media_type" json:"media_type"`
	Title       string    `db:"title" json:"title"`
	ReleaseYear *int      `db:"release_year" json:"release_year,omitempty"`
	PosterURL   *string   `db:"poster_url" json:"poster_url,omitempty"`
	LocalPoster *string   `db:"local_poster" json:"local_poster,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}

// UploadResult describes an object stored in R2.
type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Upload constraints
const (
	MaxAvatarSizeBytes = 5 * 1024 * 1024
	AvatarFolder       = "avatars"
	PosterFolder       = "posters"
)

var (
	ErrMediaNotFound    = errors.New("media not found")
	ErrInvalidMediaType = errors.New("invalid media type")
	ErrImageTooLarge    = errors.New("image exceeds size limit")
	ErrInvalidImage     = errors.New("invalid or unsupported image")
)

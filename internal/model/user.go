package model

import (
	"errors"
	"time"
)

// User represents a user in the system. Identity issuance lives in an
// external service; we only store the profile record.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	DisplayName    *string   `db:"display_name" json:"display_name"`
	AvatarURL      *string   `db:"avatar_url" json:"avatar_url"`
	Bio            *string   `db:"bio" json:"bio"`
	FollowerCount  int       `db:"follower_count" json:"follower_count"`
	FollowingCount int       `db:"following_count" json:"following_count"`
	LogCount       int       `db:"log_count" json:"log_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the lightweight author representation used in feeds and lists.
type UserSummary struct {
	ID          int64   `db:"id" json:"id"`
	Username    string  `db:"username" json:"username"`
	DisplayName *string `db:"display_name" json:"display_name"`
	AvatarURL   *string `db:"avatar_url" json:"avatar_url"`
	IsFollowing bool    `json:"is_following"`
}

// UpdateProfileRequest is the request body for profile edits.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}

const MaxBioLength = 500

var (
	// ErrUserNotFound is returned when a user cannot be found, or when a
	// blocking relationship hides the profile from the viewer.
	ErrUserNotFound = errors.New("user not found")

	ErrBioTooLong = errors.New("bio too long")
)

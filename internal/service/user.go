package service

import (
	"context"
	"fmt"
	"log"

	"mediashelf/internal/model"
	"mediashelf/internal/repository"
)

// UserService serves profiles. Blocked relationships hide profiles entirely
// rather than returning a forbidden status.
type UserService struct {
	userRepo   repository.UserRepository
	socialRepo repository.SocialRepository
	mediaSvc   *MediaService
}

func NewUserService(userRepo repository.UserRepository, socialRepo repository.SocialRepository, mediaSvc *MediaService) *UserService {
	return &UserService{
		userRepo:   userRepo,
		socialRepo: socialRepo,
		mediaSvc:   mediaSvc,
	}
}

// GetProfile returns a user's profile as seen by the viewer. A profile
// behind a block in either direction reports not-found.
func (s *UserService) GetProfile(ctx context.Context, viewerID *int64, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if viewerID != nil && *viewerID != userID {
		blocked, err := s.socialRepo.BlockExistsBetween(ctx, *viewerID, userID)
		if err != nil {
			return nil, fmt.Errorf("check block for profile: %w", err)
		}
		if blocked {
			return nil, model.ErrUserNotFound
		}
	}

	return user, nil
}

// UpdateProfile applies a partial profile edit; nil fields are untouched.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	if req.Bio != nil && len(*req.Bio) > model.MaxBioLength {
		return nil, model.ErrBioTooLong
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, req.DisplayName, req.Bio, nil)
	if err != nil {
		return nil, err
	}

	log.Printf("[UserService] UpdateProfile OK: user=%d", userID)
	return user, nil
}

// UpdateAvatar uploads a new avatar image and stores its URL on the profile.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, data []byte) (*model.User, error) {
	if s.mediaSvc == nil {
		return nil, fmt.Errorf("image storage not configured")
	}
	result, err := s.mediaSvc.UploadAvatar(ctx, userID, data)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, nil, nil, &result.URL)
	if err != nil {
		return nil, err
	}

	log.Printf("[UserService] UpdateAvatar OK: user=%d key=%s", userID, result.Key)
	return user, nil
}

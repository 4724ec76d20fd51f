package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mediashelf/internal/httputil"
	"mediashelf/internal/model"
	"mediashelf/internal/service"
	"mediashelf/internal/transport/http/middleware"
)

type SocialHandler struct {
	socialService *service.SocialService
}

func NewSocialHandler(socialService *service.SocialService) *SocialHandler {
	return &SocialHandler{
		socialService: socialService,
	}
}

// Follow handles POST /users/{id}/follow
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	err = h.socialService.Follow(r.Context(), userID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCannotFollowSelf):
			httputil.WriteBadRequest(w, "Cannot follow yourself")
		case errors.Is(err, model.ErrAlreadyFollowing):
			httputil.WriteConflict(w, "Already following this user")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[ERROR] Follow handler: user=%d target=%d err=%v", userID, targetID, err)
			httputil.WriteInternalError(w, "Failed to follow user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Followed"})
}

// Unfollow handles DELETE /users/{id}/follow
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	err = h.socialService.Unfollow(r.Context(), userID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFollowing):
			httputil.WriteNotFound(w, "Not following this user")
		default:
			log.Printf("[ERROR] Unfollow handler: user=%d target=%d err=%v", userID, targetID, err)
			httputil.WriteInternalError(w, "Failed to unfollow user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Unfollowed"})
}

// Block handles POST /users/{id}/block
func (h *SocialHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	err = h.socialService.Block(r.Context(), userID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCannotBlockSelf):
			httputil.WriteBadRequest(w, "Cannot block yourself")
		case errors.Is(err, model.ErrAlreadyBlocked):
			httputil.WriteConflict(w, "Already blocking this user")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[ERROR] Block handler: user=%d target=%d err=%v", userID, targetID, err)
			httputil.WriteInternalError(w, "Failed to block user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Blocked"})
}

// Unblock handles DELETE /users/{id}/block
func (h *SocialHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	err = h.socialService.Unblock(r.Context(), userID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotBlocked):
			httputil.WriteNotFound(w, "Not blocking this user")
		default:
			log.Printf("[ERROR] Unblock handler: user=%d target=%d err=%v", userID, targetID, err)
			httputil.WriteInternalError(w, "Failed to unblock user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Unblocked"})
}

// GetFollowers handles GET /users/{id}/followers
func (h *SocialHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.socialService.GetFollowers)
}

// GetFollowing handles GET /users/{id}/following
func (h *SocialHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.socialService.GetFollowing)
}

func (h *SocialHandler) listEdges(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, viewerID, userID int64, cursor *time.Time) (*model.FollowListResponse, error),
) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var cursor *time.Time
	if c := r.URL.Query().Get("cursor"); c != "" {
		parsed, err := time.Parse(time.RFC3339Nano, c)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid cursor")
			return
		}
		cursor = &parsed
	}

	resp, err := list(r.Context(), userID, targetID, cursor)
	if err != nil {
		log.Printf("[ERROR] List edges handler: user=%d err=%v", targetID, err)
		httputil.WriteInternalError(w, "Failed to list users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

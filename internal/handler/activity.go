package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mediashelf/internal/httputil"
	"mediashelf/internal/model"
	"mediashelf/internal/service"
	"mediashelf/internal/transport/http/middleware"
)

type ActivityHandler struct {
	activityService *service.ActivityService
}

func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// Create handles POST /logs
// Records a consumption log, optionally with a review body and rating.
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	item, err := h.activityService.CreateLog(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidVisibility):
			httputil.WriteBadRequest(w, "Visibility must be public, followers, or private")
		case errors.Is(err, model.ErrInvalidRating):
			httputil.WriteBadRequest(w, "Rating must be between 0.5 and 5.0 in half steps")
		case errors.Is(err, model.ErrBodyTooLong):
			httputil.WriteBadRequest(w, "Review body too long (max 5000 characters)")
		case errors.Is(err, model.ErrInvalidSubject):
			httputil.WriteBadRequest(w, "Unknown subject")
		case errors.Is(err, model.ErrRateLimited):
			httputil.WriteTooManyRequests(w, "Too many logs, slow down")
		default:
			log.Printf("[ERROR] Create log handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to create log")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, item)
}

// GetByID handles GET /logs/{id}
// Returns a single enriched log if the viewer may see it.
func (h *ActivityHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	logID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid log ID")
		return
	}

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	item, err := h.activityService.GetLog(r.Context(), viewerID, logID)
	if err != nil {
		if errors.Is(err, model.ErrLogNotFound) {
			httputil.WriteNotFound(w, "Log not found")
			return
		}
		log.Printf("[ERROR] Get log handler: log=%d err=%v", logID, err)
		httputil.WriteInternalError(w, "Failed to get log")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /logs/{id}
// Soft-deletes a log (only the author can delete).
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	logID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid log ID")
		return
	}

	err = h.activityService.DeleteLog(r.Context(), logID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrLogNotFound):
			httputil.WriteNotFound(w, "Log not found")
		case errors.Is(err, model.ErrNotLogOwner):
			httputil.WriteForbidden(w, "You can only delete your own logs")
		default:
			log.Printf("[ERROR] Delete log handler: user=%d log=%d err=%v", userID, logID, err)
			httputil.WriteInternalError(w, "Failed to delete log")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Log deleted"})
}

// GetUserLogs handles GET /users/{id}/logs
// Returns a user's logs, filtered to what the viewer may see.
func (h *ActivityHandler) GetUserLogs(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	items, err := h.activityService.GetUserLogs(r.Context(), viewerID, targetID, limit)
	if err != nil {
		log.Printf("[ERROR] Get user logs handler: user=%d err=%v", targetID, err)
		httputil.WriteInternalError(w, "Failed to get logs")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

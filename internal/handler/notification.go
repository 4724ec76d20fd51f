package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"mediashelf/internal/httputil"
	"mediashelf/internal/service"
	"mediashelf/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List handles GET /notifications
// Returns the caller's notifications newest first plus the unread count.
//
// Query params:
//   - cursor: optional pagination cursor (RFC3339 timestamp)
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
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

	resp, err := h.notificationService.List(r.Context(), userID, cursor)
	if err != nil {
		log.Printf("[ERROR] List notifications handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to list notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

// MarkRead handles POST /notifications/read
// Marks the given notification ids as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), userID, req.IDs); err != nil {
		log.Printf("[ERROR] Mark read handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to mark notifications read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Marked read"})
}

// MarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), userID); err != nil {
		log.Printf("[ERROR] Mark all read handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to mark notifications read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "All marked read"})
}

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

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create handles POST /logs/{id}/comments
// Posts a reply on a log the caller can see.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.CreateComment(r.Context(), userID, logID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyComment):
			httputil.WriteBadRequest(w, "Comment body is required")
		case errors.Is(err, model.ErrCommentTooLong):
			httputil.WriteBadRequest(w, "Comment too long (max 2200 characters)")
		case errors.Is(err, model.ErrLogNotFound):
			httputil.WriteNotFound(w, "Log not found")
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteBadRequest(w, "Parent comment not found on this log")
		case errors.Is(err, model.ErrRateLimited):
			httputil.WriteTooManyRequests(w, "Too many comments, slow down")
		default:
			log.Printf("[ERROR] Create comment handler: user=%d log=%d err=%v", userID, logID, err)
			httputil.WriteInternalError(w, "Failed to create comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// List handles GET /logs/{id}/comments
// Returns a log's comments oldest first.
//
// Query params:
//   - cursor: optional pagination cursor
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	logID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid log ID")
		return
	}

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	resp, err := h.commentService.ListComments(r.Context(), viewerID, logID, cursor)
	if err != nil {
		if errors.Is(err, model.ErrLogNotFound) {
			httputil.WriteNotFound(w, "Log not found")
			return
		}
		log.Printf("[ERROR] List comments handler: log=%d err=%v", logID, err)
		httputil.WriteInternalError(w, "Failed to list comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

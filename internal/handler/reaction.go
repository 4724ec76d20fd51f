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

type ReactionHandler struct {
	reactionService *service.ReactionService
}

func NewReactionHandler(reactionService *service.ReactionService) *ReactionHandler {
	return &ReactionHandler{
		reactionService: reactionService,
	}
}

type reactRequest struct {
	Kind string `json:"kind"`
}

// React handles PUT /logs/{id}/reaction
// Sets the caller's reaction on a log, replacing any previous kind.
func (h *ReactionHandler) React(w http.ResponseWriter, r *http.Request) {
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

	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	err = h.reactionService.React(r.Context(), userID, logID, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidReaction):
			httputil.WriteBadRequest(w, "Invalid reaction kind")
		case errors.Is(err, model.ErrLogNotFound):
			httputil.WriteNotFound(w, "Log not found")
		case errors.Is(err, model.ErrRateLimited):
			httputil.WriteTooManyRequests(w, "Too many reactions, slow down")
		default:
			log.Printf("[ERROR] React handler: user=%d log=%d err=%v", userID, logID, err)
			httputil.WriteInternalError(w, "Failed to set reaction")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Reaction set"})
}

// Unreact handles DELETE /logs/{id}/reaction
// Removes the caller's reaction from a log.
func (h *ReactionHandler) Unreact(w http.ResponseWriter, r *http.Request) {
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

	err = h.reactionService.Unreact(r.Context(), userID, logID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrLogNotFound):
			httputil.WriteNotFound(w, "Log not found")
		case errors.Is(err, model.ErrReactionNotFound):
			httputil.WriteNotFound(w, "No reaction to remove")
		default:
			log.Printf("[ERROR] Unreact handler: user=%d log=%d err=%v", userID, logID, err)
			httputil.WriteInternalError(w, "Failed to remove reaction")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Reaction removed"})
}

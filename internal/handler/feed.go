package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"mediashelf/internal/httputil"
	"mediashelf/internal/model"
	"mediashelf/internal/service"
	"mediashelf/internal/transport/http/middleware"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// GetFollowingFeed handles GET /feed
// Returns the authenticated user's home feed (followed authors, newest first).
//
// Query params:
//   - cursor: optional, opaque pagination cursor
//   - page_size: optional, items per page (default 20, max 50)
//   - media_types: optional, comma-separated allow-list (movie,show,game,music)
//   - include_reviews: optional, "false" drops review-bearing items
//   - time_range: optional, day|week|month|all (default all)
func (h *FeedHandler) GetFollowingFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	q := parseFeedQuery(r)

	page, err := h.feedService.GetFollowingFeed(r.Context(), userID, q)
	if err != nil {
		log.Printf("[ERROR] GetFollowingFeed handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// GetGlobalFeed handles GET /feed/global
// Returns the public discover feed; works for anonymous viewers too.
//
// Accepts the same params as GET /feed plus:
//   - sort: optional, recent|popular|discussed (default recent)
func (h *FeedHandler) GetGlobalFeed(w http.ResponseWriter, r *http.Request) {
	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	q := parseFeedQuery(r)
	q.SortBy = parseSortBy(r.URL.Query().Get("sort"))

	page, err := h.feedService.GetGlobalFeed(r.Context(), viewerID, q)
	if err != nil {
		log.Printf("[ERROR] GetGlobalFeed handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to get feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// parseFeedQuery builds a FeedQuery from query params. Malformed values
// degrade to defaults rather than erroring: the feed is a browse surface and
// a bad page_size should not produce a 400.
func parseFeedQuery(r *http.Request) model.FeedQuery {
	params := r.URL.Query()

	q := model.FeedQuery{
		Cursor:         params.Get("cursor"),
		IncludeReviews: true,
		TimeRange:      parseTimeRange(params.Get("time_range")),
		SortBy:         model.SortRecent,
	}

	if ps := params.Get("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil {
			q.PageSize = parsed
		}
	}

	if mt := params.Get("media_types"); mt != "" {
		for _, t := range strings.Split(mt, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				q.MediaTypes = append(q.MediaTypes, t)
			}
		}
	}

	if ir := params.Get("include_reviews"); ir != "" {
		if parsed, err := strconv.ParseBool(ir); err == nil {
			q.IncludeReviews = parsed
		}
	}

	return q
}

func parseTimeRange(s string) model.TimeRange {
	switch model.TimeRange(s) {
	case model.TimeRangeDay, model.TimeRangeWeek, model.TimeRangeMonth:
		return model.TimeRange(s)
	default:
		return model.TimeRangeAll
	}
}

func parseSortBy(s string) model.SortBy {
	switch model.SortBy(s) {
	case model.SortPopular, model.SortDiscussed:
		return model.SortBy(s)
	default:
		return model.SortRecent
	}
}

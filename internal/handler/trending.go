package handler

import (
	"log"
	"net/http"
	"strconv"

	"mediashelf/internal/httputil"
	"mediashelf/internal/model"
	"mediashelf/internal/service"
)

type TrendingHandler struct {
	trendingService *service.TrendingService
}

func NewTrendingHandler(trendingService *service.TrendingService) *TrendingHandler {
	return &TrendingHandler{
		trendingService: trendingService,
	}
}

// GetTrending handles GET /trending
// Returns media ranked by recent public activity. Public surface, no auth.
//
// Query params:
//   - time_range: optional, day|week|month|all (default week)
//   - media_type: optional, movie|show|game|music
//   - limit: optional, max results (default 20, max 50)
func (h *TrendingHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := model.TrendingQuery{
		TimeRange: model.TimeRangeWeek,
	}
	if tr := params.Get("time_range"); tr != "" {
		q.TimeRange = parseTimeRange(tr)
	}
	if mt := params.Get("media_type"); mt != "" {
		switch mt {
		case model.MediaTypeMovie, model.MediaTypeShow, model.MediaTypeGame, model.MediaTypeMusic:
			q.MediaType = &mt
		default:
			httputil.WriteBadRequest(w, "Invalid media_type")
			return
		}
	}
	if l := params.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			q.Limit = parsed
		}
	}

	results, err := h.trendingService.GetTrending(r.Context(), q)
	if err != nil {
		log.Printf("[ERROR] GetTrending handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to get trending media")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, results)
}

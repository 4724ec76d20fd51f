package model

import (
	"errors"
	"time"
)

// ViewerContext is the resolved social position of the requesting user.
// Derived per request, never persisted.
type ViewerContext struct {
	UserID      *int64
	Following   map[int64]struct{}
	BlockedByMe map[int64]struct{}
	BlocksMe    map[int64]struct{}
}

// AnonymousViewer returns a context with no identity and empty sets.
func AnonymousViewer() *ViewerContext {
	return &ViewerContext{
		Following:   map[int64]struct{}{},
		BlockedByMe: map[int64]struct{}{},
		BlocksMe:    map[int64]struct{}{},
	}
}

func (vc *ViewerContext) IsAnonymous() bool {
	return vc.UserID == nil
}

func (vc *ViewerContext) IsSelf(userID int64) bool {
	return vc.UserID != nil && *vc.UserID == userID
}

func (vc *ViewerContext) Follows(userID int64) bool {
	_, ok := vc.Following[userID]
	return ok
}

// BlockedEither reports whether a block exists between viewer and userID in
// either direction.
func (vc *ViewerContext) BlockedEither(userID int64) bool {
	if _, ok := vc.BlockedByMe[userID]; ok {
		return true
	}
	_, ok := vc.BlocksMe[userID]
	return ok
}

// TimeRange bounds how far back a feed or trending scan reaches.
type TimeRange string

const (
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeAll   TimeRange = "all"
)

// Since returns the lower time bound for the range, or nil for "all".
// Unknown values fall back to "all" rather than erroring.
func (tr TimeRange) Since(now time.Time) *time.Time {
	var d time.Duration
	switch tr {
	case TimeRangeDay:
		d = 24 * time.Hour
	case TimeRangeWeek:
		d = 7 * 24 * time.Hour
	case TimeRangeMonth:
		d = 30 * 24 * time.Hour
	default:
		return nil
	}
	t := now.Add(-d)
	return &t
}

// SortBy selects the feed ordering.
type SortBy string

const (
	SortRecent    SortBy = "recent"
	SortPopular   SortBy = "popular"
	SortDiscussed SortBy = "discussed"
)

// FeedQuery carries the caller-supplied feed parameters. Malformed values are
// clamped to safe defaults rather than rejected.
type FeedQuery struct {
	Cursor         string
	PageSize       int // 0 means unset
	MediaTypes     []string
	IncludeReviews bool
	TimeRange      TimeRange
	SortBy         SortBy
}

// FeedItem is an activity item enriched for display.
type FeedItem struct {
	Activity       ActivityItem   `json:"activity"`
	Author         UserSummary    `json:"author"`
	Media          *MediaRecord   `json:"media,omitempty"`
	Thread         *ThreadSummary `json:"thread,omitempty"`
	Reactions      map[string]int `json:"reactions"`
	ReactionCount  int            `json:"reaction_count"`
	CommentCount   int            `json:"comment_count"`
	ViewerReaction *string        `json:"viewer_reaction,omitempty"`
}

// FeedPage is the paginated feed response. The cursor is an opaque offset
// into this request's filtered ordering; it is only meaningful against the
// same filters. Truncated is set when a candidate scan hit its cap, meaning
// relevant older items may have been silently omitted.
type FeedPage struct {
	Items      []FeedItem `json:"items"`
	NextCursor *string    `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
	Truncated  bool       `json:"truncated"`
}

// TrendingQuery carries the trending read parameters.
type TrendingQuery struct {
	MediaType *string
	TimeRange TimeRange
	Limit     int
}

// TrendingMedia is one row of the "what's hot" answer.
type TrendingMedia struct {
	Media         MediaRecord `json:"media"`
	TrendingScore int         `json:"trending_score"`
	LogCount      int         `json:"log_count"`
	ReviewCount   int         `json:"review_count"`
	ReactionCount int         `json:"reaction_count"`
}

// Feed errors
var (
	ErrFeedUnavailable = errors.New("feed backing store unavailable")
)

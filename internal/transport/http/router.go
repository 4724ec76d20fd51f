package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mediashelf/internal/handler"
	"mediashelf/internal/httputil"
	authmw "mediashelf/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	UserHandler         *handler.UserHandler
	SocialHandler       *handler.SocialHandler
	FeedHandler         *handler.FeedHandler
	TrendingHandler     *handler.TrendingHandler
	ActivityHandler     *handler.ActivityHandler
	ReactionHandler     *handler.ReactionHandler
	CommentHandler      *handler.CommentHandler
	NotificationHandler *handler.NotificationHandler
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	optionalAuth := authmw.OptionalAuthMiddleware(cfg.JWTSecret)

	// Public read surfaces with optional authentication
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/feed/global", cfg.FeedHandler.GetGlobalFeed)
		r.Get("/trending", cfg.TrendingHandler.GetTrending)

		r.Get("/logs/{id}", cfg.ActivityHandler.GetByID)
		r.Get("/logs/{id}/comments", cfg.CommentHandler.List)

		r.Get("/users/{id}", cfg.UserHandler.GetProfile)
		r.Get("/users/{id}/logs", cfg.ActivityHandler.GetUserLogs)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/feed", cfg.FeedHandler.GetFollowingFeed)

		r.Post("/logs", cfg.ActivityHandler.Create)
		r.Delete("/logs/{id}", cfg.ActivityHandler.Delete)

		r.Put("/logs/{id}/reaction", cfg.ReactionHandler.React)
		r.Delete("/logs/{id}/reaction", cfg.ReactionHandler.Unreact)
		r.Post("/logs/{id}/comments", cfg.CommentHandler.Create)

		r.Post("/users/{id}/follow", cfg.SocialHandler.Follow)
		r.Delete("/users/{id}/follow", cfg.SocialHandler.Unfollow)
		r.Post("/users/{id}/block", cfg.SocialHandler.Block)
		r.Delete("/users/{id}/block", cfg.SocialHandler.Unblock)
		r.Get("/users/{id}/followers", cfg.SocialHandler.GetFollowers)
		r.Get("/users/{id}/following", cfg.SocialHandler.GetFollowing)

		r.Patch("/users/me", cfg.UserHandler.UpdateProfile)
		r.Put("/users/me/avatar", cfg.UserHandler.UpdateAvatar)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Post("/read", cfg.NotificationHandler.MarkRead)
			r.Post("/read-all", cfg.NotificationHandler.MarkAllRead)
		})
	})

	return r
}

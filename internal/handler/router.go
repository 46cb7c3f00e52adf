package handler

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"notification-feed/internal/middleware"
)

// Router sets up HTTP routes
type Router struct {
	notificationHandler *NotificationHandler
	authMiddleware      *middleware.AuthMiddleware
	rateLimiter         *middleware.RateLimiter
	mux                 *http.ServeMux
}

// NewRouter creates a new router
func NewRouter(notificationHandler *NotificationHandler, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter) *Router {
	return &Router{
		notificationHandler: notificationHandler,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		mux:                 http.NewServeMux(),
	}
}

// Setup configures all routes
func (r *Router) Setup() http.Handler {
	r.mux.HandleFunc("/api/v1/notifications", r.authMiddleware.Auth(r.notificationHandler.GetFeed))
	r.mux.HandleFunc("/api/v1/notifications/unread-count", r.authMiddleware.Auth(r.notificationHandler.GetUnreadCount))
	r.mux.HandleFunc("/api/v1/notifications/mark-read", r.authMiddleware.Auth(r.notificationHandler.MarkRead))

	r.mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	r.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = r.mux

	handler = middleware.Logging(handler)

	if r.rateLimiter != nil {
		handler = r.rateLimiter.Middleware(handler)
	}

	return handler
}

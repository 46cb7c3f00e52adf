package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"notification-feed/internal/domain/entity"
	"notification-feed/internal/domain/service"
	"notification-feed/internal/middleware"
)

const defaultFeedLimit = 25

// NotificationHandler serves the notification feed endpoints
type NotificationHandler struct {
	feed        service.FeedService
	unreadCount service.UnreadCountService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(feed service.FeedService, unreadCount service.UnreadCountService) *NotificationHandler {
	return &NotificationHandler{
		feed:        feed,
		unreadCount: unreadCount,
	}
}

// GetFeed returns one page of the merged notification feed
// @Summary Get notification feed
// @Description Merged local and aggregator notifications, newest first. Returned local notifications are marked read.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param types query string false "Comma-separated aggregator types; omit for all, empty for none"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Param limit query int false "Page size (max 25)"
// @Param fresh query bool false "Bypass the response cache"
// @Success 200 {object} object{notifications=[]object,next_cursor=string}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 502 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	recipientID := middleware.GetRecipientID(r)
	if recipientID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	query := r.URL.Query()
	req := &entity.FeedRequest{
		RecipientID: recipientID,
		Cursor:      query.Get("cursor"),
		Limit:       defaultFeedLimit,
	}

	if _, present := query["types"]; present {
		req.Types = parseTypes(query.Get("types"))
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
			return
		}
		req.Limit = limit
	}

	if raw := query.Get("fresh"); raw != "" {
		fresh, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid fresh flag"})
			return
		}
		req.Fresh = fresh
	}

	page, err := h.feed.Feed(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetUnreadCount returns the approximate unread badge count
// @Summary Get unread count
// @Description Counts unread local notifications only
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{unread_count=int}
// @Failure 401 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /api/v1/notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	recipientID := middleware.GetRecipientID(r)
	if recipientID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	count, err := h.unreadCount.Count(r.Context(), recipientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkRead marks specific notifications read
// @Summary Mark notifications read
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{ids=[]string} true "Notification ids"
// @Success 200 {object} object{marked=int}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /api/v1/notifications/mark-read [post]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	recipientID := middleware.GetRecipientID(r)
	if recipientID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	marked, err := h.feed.MarkRead(r.Context(), recipientID, req.IDs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"marked": marked})
}

// parseTypes splits a comma-separated filter. An empty value yields an
// empty, non-nil filter.
func parseTypes(raw string) []string {
	types := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			types = append(types, part)
		}
	}
	return types
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notification-feed/internal/domain/entity"
	"notification-feed/internal/domain/service"
	"notification-feed/internal/middleware"
	"notification-feed/pkg/jwt"
)

type fakeFeed struct {
	lastReq *entity.FeedRequest
	page    *entity.FeedPage
	err     error

	markedIDs []string
	marked    int
}

func (f *fakeFeed) Feed(ctx context.Context, req *entity.FeedRequest) (*entity.FeedPage, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeFeed) MarkRead(ctx context.Context, recipientID string, ids []string) (int, error) {
	f.markedIDs = ids
	if f.err != nil {
		return 0, f.err
	}
	return f.marked, nil
}

type fakeUnread struct {
	count int
	err   error
}

func (u *fakeUnread) Count(ctx context.Context, recipientID string) (int, error) {
	return u.count, u.err
}

func (u *fakeUnread) Invalidate(ctx context.Context, recipientID string) error { return nil }

type testServer struct {
	handler http.Handler
	feed    *fakeFeed
	unread  *fakeUnread
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tokens := jwt.NewTokenManager("secret", time.Minute, "notification-feed")
	token, _, err := tokens.GenerateAccessToken("3621")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	next := "abc"
	feed := &fakeFeed{page: &entity.FeedPage{
		Notifications: []entity.NotificationView{{ID: "n1", Type: "watched_reply", Source: entity.SourceLocal, RecipientID: "3621"}},
		NextCursor:    &next,
	}}
	unread := &fakeUnread{count: 4}

	router := NewRouter(NewNotificationHandler(feed, unread), middleware.NewAuthMiddleware(tokens), nil)
	return &testServer{handler: router.Setup(), feed: feed, unread: unread, token: token}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestGetFeedParsesQuery(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/notifications?types=likes,%20follows,&cursor=xyz&limit=10&fresh=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	req := s.feed.lastReq
	if req.RecipientID != "3621" || req.Cursor != "xyz" || req.Limit != 10 || !req.Fresh {
		t.Fatalf("request = %+v", req)
	}
	if len(req.Types) != 2 || req.Types[0] != "likes" || req.Types[1] != "follows" {
		t.Fatalf("types = %#v", req.Types)
	}

	var page entity.FeedPage
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Notifications) != 1 || page.NextCursor == nil || *page.NextCursor != "abc" {
		t.Fatalf("page = %+v", page)
	}
}

func TestGetFeedTypeFilterPresence(t *testing.T) {
	s := newTestServer(t)

	s.do(http.MethodGet, "/api/v1/notifications", "")
	if s.feed.lastReq.Types != nil {
		t.Fatalf("absent types = %#v, want nil", s.feed.lastReq.Types)
	}
	if s.feed.lastReq.Limit != defaultFeedLimit {
		t.Fatalf("default limit = %d", s.feed.lastReq.Limit)
	}

	s.do(http.MethodGet, "/api/v1/notifications?types=", "")
	if s.feed.lastReq.Types == nil || len(s.feed.lastReq.Types) != 0 {
		t.Fatalf("empty types = %#v, want empty non-nil", s.feed.lastReq.Types)
	}
}

func TestGetFeedErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{name: "bad limit", target: "/api/v1/notifications?limit=ten", status: http.StatusBadRequest},
		{name: "bad fresh", target: "/api/v1/notifications?fresh=maybe", status: http.StatusBadRequest},
		{name: "invalid input", target: "/api/v1/notifications", err: fmt.Errorf("%w: limit must be positive", service.ErrInvalidInput), status: http.StatusBadRequest},
		{name: "external failure", target: "/api/v1/notifications", err: fmt.Errorf("%w: %w", service.ErrExternalSource, context.DeadlineExceeded), status: http.StatusBadGateway},
		{name: "storage failure", target: "/api/v1/notifications", err: errors.New("failed to read local notifications"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.feed.err = tt.err

			rec := s.do(http.MethodGet, tt.target, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Fatalf("error body = %v, %v", body, err)
			}
		})
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/api/v1/notifications", "/api/v1/notifications/unread-count"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token = %d", target, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
}

func TestGetUnreadCount(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/notifications/unread-count", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["unread_count"] != 4 {
		t.Fatalf("body = %v, %v", body, err)
	}

	s.unread.err = errors.New("db down")
	if rec := s.do(http.MethodGet, "/api/v1/notifications/unread-count", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("failure status = %d", rec.Code)
	}
}

func TestMarkRead(t *testing.T) {
	s := newTestServer(t)
	s.feed.marked = 2

	rec := s.do(http.MethodPost, "/api/v1/notifications/mark-read", `{"ids":["a","b"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(s.feed.markedIDs) != 2 {
		t.Fatalf("ids = %v", s.feed.markedIDs)
	}
	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["marked"] != 2 {
		t.Fatalf("body = %v, %v", body, err)
	}

	if rec := s.do(http.MethodPost, "/api/v1/notifications/mark-read", `{"ids":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body status = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/v1/notifications/mark-read", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", rec.Code)
	}
}

package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"notification-feed/internal/domain/entity"
	"notification-feed/internal/domain/service"
)

// Options configures the aggregator client
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Client calls the third-party notification aggregator API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

var _ service.ExternalNotificationClient = (*Client)(nil)

// NewClient creates a new aggregator client
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

type notificationsResponse struct {
	Notifications []notificationItem `json:"notifications"`
	Next          struct {
		Cursor string `json:"cursor"`
	} `json:"next"`
}

type notificationItem struct {
	Type                string      `json:"type"`
	Timestamp           looseString `json:"timestamp"`
	MostRecentTimestamp looseString `json:"most_recent_timestamp"`
	CreatedAt           looseString `json:"created_at"`
	Seen                bool        `json:"seen"`
	PostReference       string      `json:"post_reference"`
	Cast                *struct {
		Hash string `json:"hash"`
	} `json:"cast"`
	Actor  *user  `json:"actor"`
	Actors []user `json:"actors"`
	User   *user  `json:"user"`
}

type user struct {
	FID         looseString `json:"fid"`
	ID          looseString `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	PfpURL      string      `json:"pfp_url"`
}

// looseString accepts a JSON string or number. Numbers keep their literal
// text so timestamps and ids written either way survive decoding.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

// FetchNotifications fetches one page of aggregator notifications
func (c *Client) FetchNotifications(ctx context.Context, recipientID string, types []string, limit int, continuation string) (*entity.ExternalPage, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("aggregator base url is not configured")
	}

	query := url.Values{}
	query.Set("recipient", recipientID)
	query.Set("types", strings.Join(types, ","))
	query.Set("limit", strconv.Itoa(limit))
	if continuation != "" {
		query.Set("cursor", continuation)
	}
	endpoint := c.baseURL + "/v2/notifications?" + query.Encode()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp notificationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode aggregator response: %w", err)
	}

	page := &entity.ExternalPage{
		Items:      make([]entity.ExternalNotification, 0, len(resp.Notifications)),
		NextCursor: strings.TrimSpace(resp.Next.Cursor),
	}
	for _, item := range resp.Notifications {
		page.Items = append(page.Items, item.toEntity())
	}

	return page, nil
}

func (item notificationItem) toEntity() entity.ExternalNotification {
	out := entity.ExternalNotification{
		Type:                item.Type,
		Timestamp:           string(item.Timestamp),
		MostRecentTimestamp: string(item.MostRecentTimestamp),
		CreatedAt:           string(item.CreatedAt),
		PostReference:       item.PostReference,
		Seen:                item.Seen,
	}
	if out.PostReference == "" && item.Cast != nil {
		out.PostReference = item.Cast.Hash
	}

	switch {
	case item.Actor != nil:
		out.Actor = item.Actor.toActor()
	case len(item.Actors) > 0:
		out.Actor = item.Actors[0].toActor()
	case item.User != nil:
		out.Actor = item.User.toActor()
	}

	return out
}

func (u user) toActor() *entity.Actor {
	id := string(u.FID)
	if id == "" {
		id = string(u.ID)
	}
	return &entity.Actor{
		ID:           id,
		Handle:       u.Username,
		DisplayLabel: u.DisplayName,
		AvatarRef:    u.PfpURL,
	}
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build aggregator request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("x-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() == nil && attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, fmt.Errorf("aggregator request failed: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read aggregator response: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return body, nil
		}

		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		message := strings.TrimSpace(string(body))
		var parsed struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &parsed) == nil && strings.TrimSpace(parsed.Message) != "" {
			message = parsed.Message
		}
		return nil, fmt.Errorf("aggregator request failed: status=%d message=%s", resp.StatusCode, message)
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		return min(retryAfter, c.maxDelay)
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	return min(delay, c.maxDelay)
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

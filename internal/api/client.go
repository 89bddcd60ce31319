package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kmorse/huddle/internal/model"
)

// Client is a thin HTTP client for the league API. It handles Bearer
// token authentication, JSON (de)serialization, and maps non-2xx
// responses onto the client error taxonomy. Retries are the caller's
// concern; the query cache owns that policy.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// mu guards token: the UI goroutine swaps it on login/logout while
	// poller goroutines read it for in-flight requests.
	mu    sync.RWMutex
	token string
}

// New creates an API client for the server at baseURL. The token may be
// empty for unauthenticated calls such as login.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// bearerToken returns the current token under the read lock.
func (c *Client) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Credentials is the login request payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the successful login payload.
type LoginResponse struct {
	Token     string     `json:"token"`
	User      model.User `json:"user"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// Login authenticates with the server and returns the issued token and
// identity. The client's own token is not changed; call SetToken with
// the result once the session is persisted.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/api/v2/auth/login", creds, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.get(ctx, "/api/v2/auth/me", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &u, nil
}

// Teams returns all league teams.
func (c *Client) Teams(ctx context.Context) ([]model.Team, error) {
	var teams []model.Team
	if err := c.get(ctx, "/api/v2/teams", &teams); err != nil {
		return nil, fmt.Errorf("client.Teams: %w", err)
	}
	return teams, nil
}

// Games returns the season schedule.
func (c *Client) Games(ctx context.Context) ([]model.Game, error) {
	var games []model.Game
	if err := c.get(ctx, "/api/v2/games", &games); err != nil {
		return nil, fmt.Errorf("client.Games: %w", err)
	}
	return games, nil
}

// CurrentWeek returns the season calendar position.
func (c *Client) CurrentWeek(ctx context.Context) (*model.SeasonProgress, error) {
	var sp model.SeasonProgress
	if err := c.get(ctx, "/api/v2/current-week", &sp); err != nil {
		return nil, fmt.Errorf("client.CurrentWeek: %w", err)
	}
	return &sp, nil
}

// Standings returns a page of standings rows. The params carry the
// year/conference/search/sort filters in their URL-encoded form.
func (c *Client) Standings(ctx context.Context, params url.Values) (*model.StandingsPage, error) {
	path := "/api/v2/standings"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page model.StandingsPage
	if err := c.get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("client.Standings: %w", err)
	}
	return &page, nil
}

// Notifications returns the recipient's recent notifications, newest first.
func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var ns []model.Notification
	if err := c.get(ctx, "/api/v2/notifications", &ns); err != nil {
		return nil, fmt.Errorf("client.Notifications: %w", err)
	}
	return ns, nil
}

// MarkNotificationRead marks a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	path := "/api/v2/notifications/" + url.PathEscape(id) + "/read"
	if err := c.doRequest(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("client.MarkNotificationRead: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification as read. The server
// treats this as idempotent.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPut, "/api/v2/notifications/read-all", nil, nil); err != nil {
		return fmt.Errorf("client.MarkAllNotificationsRead: %w", err)
	}
	return nil
}

// DeleteNotification removes a notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	path := "/api/v2/notifications/" + url.PathEscape(id)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("client.DeleteNotification: %w", err)
	}
	return nil
}

// reviewRequest is the approve/reject payload.
type reviewRequest struct {
	Note string `json:"note,omitempty"`
}

// ApproveAchievementRequest approves a pending achievement request.
// Requires the commissioner role server-side.
func (c *Client) ApproveAchievementRequest(ctx context.Context, id int64, note string) error {
	path := fmt.Sprintf("/api/v2/achievement-requests/%d/approve", id)
	if err := c.post(ctx, path, reviewRequest{Note: note}, nil); err != nil {
		return fmt.Errorf("client.ApproveAchievementRequest: %w", err)
	}
	return nil
}

// RejectAchievementRequest rejects a pending achievement request.
// Requires the commissioner role server-side.
func (c *Client) RejectAchievementRequest(ctx context.Context, id int64, note string) error {
	path := fmt.Sprintf("/api/v2/achievement-requests/%d/reject", id)
	if err := c.post(ctx, path, reviewRequest{Note: note}, nil); err != nil {
		return fmt.Errorf("client.RejectAchievementRequest: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

// doRequest builds the request, sends it, and decodes the response.
// Non-2xx statuses become typed errors via statusError.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	op := method + " " + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearerToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		message := strings.TrimSpace(string(respBody))
		if readErr != nil {
			message = fmt.Sprintf("failed to read body: %v", readErr)
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return statusError(op, resp.StatusCode, message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

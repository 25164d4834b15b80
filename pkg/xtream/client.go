package xtream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Common errors returned by the client.
var (
	ErrAuthRejected = errors.New("account is not active")
	ErrNotFound     = errors.New("resource not found")
)

// Client is an Xtream Codes API client.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(client *Client) {
		client.userAgent = ua
	}
}

// NewClient creates a new Xtream Codes API client.
// baseURL should not include a trailing slash or path.
func NewClient(baseURL, username, password string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "tvlink/1.0",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// apiURL builds a player_api.php URL with the given action and extra params.
func (c *Client) apiURL(action string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("username", c.username)
	params.Set("password", c.password)
	if action != "" {
		params.Set("action", action)
	}
	return fmt.Sprintf("%s/player_api.php?%s", c.baseURL, params.Encode())
}

// doRequest performs an HTTP GET and decodes the JSON response into result.
func (c *Client) doRequest(ctx context.Context, requestURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// Authenticate verifies the credentials against the portal. A login only
// succeeds when the decoded account status is "Active"; any other status,
// including expired or banned accounts, returns ErrAuthRejected.
func (c *Client) Authenticate(ctx context.Context) (*AuthInfo, error) {
	var info AuthInfo
	if err := c.doRequest(ctx, c.apiURL("", nil), &info); err != nil {
		return nil, err
	}
	if !info.UserInfo.IsActive() {
		return nil, fmt.Errorf("%w: status %q", ErrAuthRejected, info.UserInfo.Status)
	}
	return &info, nil
}

// GetLiveCategories retrieves all live TV categories.
func (c *Client) GetLiveCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.doRequest(ctx, c.apiURL("get_live_categories", nil), &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetLiveStreams retrieves live streams, optionally filtered by category.
// An empty categoryID returns the full list.
func (c *Client) GetLiveStreams(ctx context.Context, categoryID string) ([]Stream, error) {
	params := url.Values{}
	if categoryID != "" {
		params.Set("category_id", categoryID)
	}
	var streams []Stream
	if err := c.doRequest(ctx, c.apiURL("get_live_streams", params), &streams); err != nil {
		return nil, err
	}
	return streams, nil
}

// LiveStreamURL builds the playback address for a live stream.
// ext is the container extension without a dot, typically "ts" or "m3u8".
func (c *Client) LiveStreamURL(streamID int64, ext string) string {
	if ext == "" {
		ext = "ts"
	}
	return fmt.Sprintf("%s/live/%s/%s/%d.%s", c.baseURL, c.username, c.password, streamID, ext)
}

package stalker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MAGUserAgent is the set-top box identity sent on create_link requests.
// Some portals refuse to mint stream tokens for browser user agents.
const MAGUserAgent = "Mozilla/5.0 (QtEmbedded; U; Linux; C; en-US) AppleWebKit/533.3 (KHTML, like Gecko) MAG200 stbapp ver: 2 rev: 250 Safari/533.3"

// DefaultMaxPages bounds sequential listing pagination so a portal that
// never returns an empty page cannot loop the client forever.
const DefaultMaxPages = 500

// DefaultTimezone is sent during the handshake. Many portals validate the
// cookie format but not the value.
const DefaultTimezone = "Europe/Kiev"

// Common errors returned by the client.
var (
	ErrHandshakeExhausted = errors.New("cannot connect to portal")
	ErrLinkUnresolved     = errors.New("no playable address")
	ErrNotConnected       = errors.New("portal handshake has not completed")
)

// Client is a Stalker portal client bound to one MAC identity.
type Client struct {
	mac        string
	portalURL  string
	httpClient *http.Client
	timezone   string
	maxPages   int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimezone sets the timezone sent in the handshake cookie.
func WithTimezone(tz string) ClientOption {
	return func(client *Client) {
		client.timezone = tz
	}
}

// WithMaxPages caps sequential pagination in GetChannels.
func WithMaxPages(n int) ClientOption {
	return func(client *Client) {
		if n > 0 {
			client.maxPages = n
		}
	}
}

// NewClient creates a portal client for the given MAC address. The portal
// root is not known until Connect succeeds.
func NewClient(mac string, opts ...ClientOption) *Client {
	c := &Client{
		mac: mac,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		timezone: DefaultTimezone,
		maxPages: DefaultMaxPages,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// PortalURL returns the portal root discovered by Connect, or "" before a
// successful handshake.
func (c *Client) PortalURL() string {
	return c.portalURL
}

// candidatePaths returns the portal roots to probe for the given base URL.
// Most portals serve the STB API under a "/c" context path, so that variant
// is tried first unless the address already looks portal-shaped.
func candidatePaths(baseURL string) []string {
	base := strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(base, "/c") || strings.Contains(base, "portal") {
		return []string{base}
	}
	return []string{base + "/c", base}
}

// Connect probes the candidate portal roots with a handshake request and
// adopts the first one that answers. A candidate is rejected on HTTP 404 or
// when the body does not look like a portal response; rejection moves on to
// the next candidate, and exhausting all of them returns
// ErrHandshakeExhausted.
func (c *Client) Connect(ctx context.Context, baseURL string) error {
	var lastErr error
	for _, candidate := range candidatePaths(baseURL) {
		ok, err := c.handshake(ctx, candidate)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			c.portalURL = candidate
			return nil
		}
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeExhausted, lastErr)
	}
	return ErrHandshakeExhausted
}

// handshake probes one candidate root. Returns (true, nil) on adoption,
// (false, nil) when the candidate answered but did not look like a portal.
func (c *Client) handshake(ctx context.Context, portalURL string) (bool, error) {
	params := url.Values{}
	params.Set("type", "stb")
	params.Set("action", "handshake")
	params.Set("token", "")
	params.Set("deviceId", c.mac)
	params.Set("deviceId2", c.mac)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/server/load.php?%s", portalURL, params.Encode()), nil)
	if err != nil {
		return false, fmt.Errorf("creating handshake request: %w", err)
	}
	req.Header.Set("Cookie", fmt.Sprintf("mac=%s; stb_lang=en; timezone=%s", c.mac, c.timezone))
	req.Header.Set("Authorization", "Bearer "+c.mac)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("executing handshake: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, nil
	}

	// Any body carrying a token or a js envelope means the portal script is
	// live at this root, even when the handshake payload itself is odd.
	text := string(body)
	return strings.Contains(text, "js") || strings.Contains(text, "token"), nil
}

// doRequest performs an authenticated portal GET and returns the raw js
// payload from the response envelope.
func (c *Client) doRequest(ctx context.Context, params url.Values, userAgent string) (json.RawMessage, error) {
	if c.portalURL == "" {
		return nil, ErrNotConnected
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/server/load.php?%s", c.portalURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cookie", fmt.Sprintf("mac=%s; stb_lang=en", c.mac))
	req.Header.Set("Authorization", "Bearer "+c.mac)
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding response envelope: %w", err)
	}
	if env.JS == nil {
		return nil, fmt.Errorf("response envelope has no payload")
	}

	return env.JS, nil
}

// GetGenres retrieves the portal's content categories.
func (c *Client) GetGenres(ctx context.Context) ([]Genre, error) {
	params := url.Values{}
	params.Set("type", "itv")
	params.Set("action", "get_genres")

	payload, err := c.doRequest(ctx, params, "")
	if err != nil {
		return nil, err
	}

	var genres []Genre
	if err := json.Unmarshal(payload, &genres); err != nil {
		return nil, fmt.Errorf("decoding genres: %w", err)
	}
	return genres, nil
}

// GetChannels retrieves the channels of one genre, walking sequential pages
// until the portal returns an empty page or the page cap is reached. Each
// page is decoded as the wrapped shape first, then as a bare array.
func (c *Client) GetChannels(ctx context.Context, genreID string) ([]Channel, error) {
	var channels []Channel
	for page := 1; page <= c.maxPages; page++ {
		params := url.Values{}
		params.Set("type", "itv")
		params.Set("action", "get_ordered_list")
		params.Set("genre", genreID)
		params.Set("force_ch_link_check", "")
		params.Set("fav", "0")
		params.Set("sortby", "number")
		params.Set("hd", "0")
		params.Set("p", fmt.Sprintf("%d", page))

		payload, err := c.doRequest(ctx, params, "")
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}

		pageChannels := decodeChannelList(payload)
		if len(pageChannels) == 0 {
			break
		}
		channels = append(channels, pageChannels...)
	}
	return channels, nil
}

// decodeChannelList accepts both listing shapes portals send. An
// undecodable page reads as empty, which ends pagination.
func decodeChannelList(payload json.RawMessage) []Channel {
	var wrapped channelPage
	if err := json.Unmarshal(payload, &wrapped); err == nil && len(wrapped.Data) > 0 {
		return wrapped.Data
	}

	var bare []Channel
	if err := json.Unmarshal(payload, &bare); err == nil {
		return bare
	}
	return nil
}

// GetAllChannels retrieves the portal's full channel list in one call. Used
// as a fallback when the genre listing is unavailable.
func (c *Client) GetAllChannels(ctx context.Context) ([]Channel, error) {
	params := url.Values{}
	params.Set("type", "itv")
	params.Set("action", "get_all_channels")

	payload, err := c.doRequest(ctx, params, "")
	if err != nil {
		return nil, err
	}

	var channels []Channel
	if err := json.Unmarshal(payload, &channels); err != nil {
		return nil, fmt.Errorf("decoding channels: %w", err)
	}
	return channels, nil
}

// CreateLink asks the portal to mint a playable address for the channel.
// The returned cmd is cleaned of launcher prefixes and validated as a URL;
// anything unusable maps to ErrLinkUnresolved.
func (c *Client) CreateLink(ctx context.Context, streamID int64) (string, error) {
	params := url.Values{}
	params.Set("type", "itv")
	params.Set("action", "create_link")
	params.Set("cmd", fmt.Sprintf("%d", streamID))
	params.Set("series", "")
	params.Set("forced_storage", "0")
	params.Set("disable_ad", "0")
	params.Set("download", "0")
	params.Set("force_ch_link_check", "0")
	params.Set("JsHttpRequest", "1-xml")

	payload, err := c.doRequest(ctx, params, MAGUserAgent)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLinkUnresolved, err)
	}

	var link linkResponse
	if err := json.Unmarshal(payload, &link); err != nil {
		return "", fmt.Errorf("%w: decoding link: %v", ErrLinkUnresolved, err)
	}
	if link.Cmd == "" {
		return "", ErrLinkUnresolved
	}

	address := cleanCmd(link.Cmd, streamID)
	if _, err := url.Parse(address); err != nil || address == "" {
		return "", fmt.Errorf("%w: invalid address %q", ErrLinkUnresolved, link.Cmd)
	}
	return address, nil
}

// cleanCmd strips the STB launcher prefixes portals prepend to stream
// addresses and restores an empty stream query parameter.
func cleanCmd(cmd string, streamID int64) string {
	cleaned := strings.ReplaceAll(cmd, "ffmpeg ", "")
	cleaned = strings.ReplaceAll(cleaned, "ffrt ", "")
	cleaned = strings.ReplaceAll(cleaned, "auto ", "")
	cleaned = strings.TrimSpace(cleaned)
	if strings.Contains(cleaned, "stream=&") {
		cleaned = strings.ReplaceAll(cleaned, "stream=&", fmt.Sprintf("stream=%d&", streamID))
	}
	return cleaned
}

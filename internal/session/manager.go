// Package session routes login, catalog and playback-address requests to the
// protocol client matching the active connection. It owns all session state
// behind one mutex; network calls run unlocked and their results are applied
// only when the session generation they started under is still current.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tvlink/tvlink/internal/models"
	"github.com/tvlink/tvlink/pkg/m3u"
	"github.com/tvlink/tvlink/pkg/stalker"
	"github.com/tvlink/tvlink/pkg/xtream"
)

// AllChannelsCategoryID is the synthetic category used when a Stalker portal
// serves no genre list and the full catalog is loaded instead.
const AllChannelsCategoryID = "0"

// AllChannelsCategoryName labels the synthetic fallback category.
const AllChannelsCategoryName = "All Channels"

// ErrSuperseded is returned when a login or fetch finished after the session
// it belonged to was replaced. Its results are discarded.
var ErrSuperseded = errors.New("session superseded")

// LoginRequest carries the credentials for one login attempt. Forced skips
// the protocol heuristics when set.
type LoginRequest struct {
	URL      string
	Username string
	Password string
	MAC      string
	Forced   models.PlaylistType
}

// Options configures a Manager.
type Options struct {
	// HTTPClient is used for all backend traffic. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives structured session events. Defaults to slog.Default.
	Logger *slog.Logger

	// StalkerMaxPages caps portal listing pagination. Zero uses the client
	// default.
	StalkerMaxPages int

	// StalkerTimezone is sent in the portal handshake cookie. Empty uses the
	// client default.
	StalkerTimezone string
}

// Manager is the single entry point for sessions across the three backend
// protocols.
type Manager struct {
	mu sync.Mutex

	httpClient      *http.Client
	log             *slog.Logger
	stalkerMaxPages int
	stalkerTimezone string

	// generation identifies the current session. Results computed under an
	// older generation are discarded instead of applied.
	generation uuid.UUID

	mode     models.PlaylistType
	baseURL  string
	username string
	password string
	loggedIn bool
	lastErr  error

	categories  []models.Category
	channels    []models.Channel
	allChannels []models.Channel

	xtreamClient  *xtream.Client
	stalkerClient *stalker.Client
}

// NewManager creates a session manager.
func NewManager(opts Options) *Manager {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		httpClient:      opts.HTTPClient,
		log:             opts.Logger,
		stalkerMaxPages: opts.StalkerMaxPages,
		stalkerTimezone: opts.StalkerTimezone,
		generation:      uuid.New(),
	}
}

// SanitizeURL normalizes a user-entered backend address: surrounding
// whitespace is trimmed, a missing scheme defaults to http, and one trailing
// slash is removed unless the address is a playlist path.
func SanitizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	if !isPlaylistPath(s) {
		s = strings.TrimSuffix(s, "/")
	}
	return s
}

func isPlaylistPath(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasSuffix(lower, ".m3u") || strings.HasSuffix(lower, ".m3u8")
}

// DetectType picks a backend protocol for the given sanitized URL and MAC. A
// MAC address means a portal, a playlist path means M3U, anything else is
// treated as an Xtream panel.
func DetectType(sanitizedURL, mac string) models.PlaylistType {
	if strings.TrimSpace(mac) != "" {
		return models.PlaylistTypeStalker
	}
	if isPlaylistPath(sanitizedURL) {
		return models.PlaylistTypeM3U
	}
	return models.PlaylistTypeXtream
}

// loginResult is the state computed by one login attempt, applied atomically
// once the attempt is known to still be current.
type loginResult struct {
	baseURL       string
	categories    []models.Category
	channels      []models.Channel
	allChannels   []models.Channel
	xtreamClient  *xtream.Client
	stalkerClient *stalker.Client

	// softErr is a non-fatal catalog error recorded on the session while the
	// login itself still succeeds.
	softErr error
}

// Login establishes a new session. Any previous session is discarded before
// the attempt starts, so a failed login never leaves stale logged-in state
// behind.
func (m *Manager) Login(ctx context.Context, req LoginRequest) error {
	m.mu.Lock()
	m.resetLocked()
	gen := m.generation

	base := SanitizeURL(req.URL)
	mode := req.Forced
	if mode == "" {
		mode = DetectType(base, req.MAC)
	}
	m.mu.Unlock()

	if base == "" {
		return m.failLogin(gen, fmt.Errorf("%w: empty url", models.ErrInvalidAddress))
	}

	log := m.log.With("mode", string(mode), "url", base)
	log.Info("login started")

	var result *loginResult
	var err error
	switch mode {
	case models.PlaylistTypeXtream:
		result, err = m.loginXtream(ctx, base, req.Username, req.Password)
	case models.PlaylistTypeStalker:
		result, err = m.loginStalker(ctx, base, req.MAC)
	case models.PlaylistTypeM3U:
		result, err = m.loginM3U(ctx, base)
	default:
		err = models.ErrInvalidPlaylistType
	}
	if err != nil {
		log.Warn("login failed", "error", err)
		return m.failLogin(gen, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return ErrSuperseded
	}

	m.mode = mode
	m.baseURL = result.baseURL
	m.username = req.Username
	m.password = req.Password
	m.loggedIn = true
	m.lastErr = result.softErr
	m.categories = result.categories
	m.channels = result.channels
	m.allChannels = result.allChannels
	m.xtreamClient = result.xtreamClient
	m.stalkerClient = result.stalkerClient

	log.Info("login succeeded",
		"categories", len(result.categories),
		"channels", len(result.allChannels))
	return nil
}

// failLogin records a terminal login error unless the attempt was already
// superseded.
func (m *Manager) failLogin(gen uuid.UUID, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return ErrSuperseded
	}
	m.loggedIn = false
	m.lastErr = err
	return err
}

func (m *Manager) loginXtream(ctx context.Context, base, user, pass string) (*loginResult, error) {
	client := xtream.NewClient(base, user, pass, xtream.WithHTTPClient(m.httpClient))

	if _, err := client.Authenticate(ctx); err != nil {
		if errors.Is(err, xtream.ErrAuthRejected) {
			return nil, fmt.Errorf("%w: %v", models.ErrAuthRejected, err)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}

	result := &loginResult{baseURL: base, xtreamClient: client}

	// Catalog errors after a successful authentication are soft: the session
	// is live with an empty category list and the error on record.
	categories, err := client.GetLiveCategories(ctx)
	if err != nil {
		result.softErr = fmt.Errorf("%w: fetching categories: %v", models.ErrDecode, err)
		return result, nil
	}
	for _, c := range categories {
		result.categories = append(result.categories, models.Category{
			ID:   c.CategoryID.String(),
			Name: c.CategoryName,
		})
	}
	return result, nil
}

func (m *Manager) loginStalker(ctx context.Context, base, mac string) (*loginResult, error) {
	opts := []stalker.ClientOption{stalker.WithHTTPClient(m.httpClient)}
	if m.stalkerTimezone != "" {
		opts = append(opts, stalker.WithTimezone(m.stalkerTimezone))
	}
	if m.stalkerMaxPages > 0 {
		opts = append(opts, stalker.WithMaxPages(m.stalkerMaxPages))
	}
	client := stalker.NewClient(mac, opts...)

	if err := client.Connect(ctx, base); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrHandshakeExhausted, err)
	}

	result := &loginResult{baseURL: client.PortalURL(), stalkerClient: client}

	genres, err := client.GetGenres(ctx)
	if err != nil {
		// Portals without genre support get one synthetic category backed by
		// the full channel list.
		m.log.Debug("genre fetch failed, loading full channel list", "error", err)
		channels, allErr := client.GetAllChannels(ctx)
		if allErr != nil {
			result.softErr = fmt.Errorf("%w: fetching channels: %v", models.ErrDecode, allErr)
			return result, nil
		}
		result.categories = []models.Category{{ID: AllChannelsCategoryID, Name: AllChannelsCategoryName}}
		result.allChannels = mapStalkerChannels(channels, AllChannelsCategoryID)
		result.channels = result.allChannels
		return result, nil
	}

	for _, g := range genres {
		result.categories = append(result.categories, models.Category{
			ID:   g.ID.String(),
			Name: g.Title,
		})
	}
	return result, nil
}

func (m *Manager) loginM3U(ctx context.Context, playlistURL string) (*loginResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playlistURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAddress, err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: playlist returned status %d", models.ErrTransport, resp.StatusCode)
	}

	channels, categories, err := ingestPlaylist(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDecode, err)
	}

	return &loginResult{
		baseURL:     playlistURL,
		categories:  categories,
		channels:    channels,
		allChannels: channels,
	}, nil
}

// ingestPlaylist parses a playlist stream into channels with sequential ids
// and the deduplicated, sorted category list derived from the group names.
func ingestPlaylist(r io.Reader) ([]models.Channel, []models.Category, error) {
	var channels []models.Channel
	groups := make(map[string]struct{})

	parser := &m3u.Parser{
		OnEntry: func(e *m3u.Entry) error {
			groups[e.Group] = struct{}{}
			channels = append(channels, models.Channel{
				ID:         len(channels) + 1,
				Name:       e.Name,
				Kind:       models.KindLive,
				IconURL:    e.Logo,
				CategoryID: e.Group,
				DirectURL:  e.URL,
			})
			return nil
		},
	}
	if err := parser.ParseCompressed(r); err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	categories := make([]models.Category, 0, len(names))
	for _, name := range names {
		categories = append(categories, models.Category{ID: name, Name: name})
	}
	return channels, categories, nil
}

func mapStalkerChannels(channels []stalker.Channel, categoryID string) []models.Channel {
	mapped := make([]models.Channel, 0, len(channels))
	for i := range channels {
		c := &channels[i]
		name := c.Name
		if name == "" {
			name = m3u.UnnamedChannel
		}
		mapped = append(mapped, models.Channel{
			ID:         int(c.ID()),
			Name:       name,
			Kind:       models.KindLive,
			IconURL:    c.Logo,
			CategoryID: categoryID,
		})
	}
	return mapped
}

// FetchChannels loads the channel list for one category and replaces the
// session's channel list wholesale. A decode or transport failure leaves an
// empty list and records the error on the session.
func (m *Manager) FetchChannels(ctx context.Context, categoryID string) error {
	m.mu.Lock()
	if !m.loggedIn {
		m.mu.Unlock()
		return models.ErrNotLoggedIn
	}
	gen := m.generation
	mode := m.mode
	xc := m.xtreamClient
	sc := m.stalkerClient
	all := m.allChannels
	m.mu.Unlock()

	var channels []models.Channel
	var err error
	switch mode {
	case models.PlaylistTypeXtream:
		var streams []xtream.Stream
		streams, err = xc.GetLiveStreams(ctx, categoryID)
		if err != nil {
			err = fmt.Errorf("%w: fetching channels: %v", models.ErrDecode, err)
			break
		}
		for _, s := range streams {
			channels = append(channels, models.Channel{
				ID:         int(s.StreamID.Int()),
				Name:       s.Name,
				Kind:       models.KindLive,
				IconURL:    s.StreamIcon,
				CategoryID: categoryID,
			})
		}
	case models.PlaylistTypeStalker:
		if categoryID == AllChannelsCategoryID && len(all) > 0 {
			channels = all
			break
		}
		var portalChannels []stalker.Channel
		portalChannels, err = sc.GetChannels(ctx, categoryID)
		if err != nil {
			err = fmt.Errorf("%w: fetching channels: %v", models.ErrDecode, err)
			break
		}
		channels = mapStalkerChannels(portalChannels, categoryID)
	case models.PlaylistTypeM3U:
		for _, c := range all {
			if c.CategoryID == categoryID {
				channels = append(channels, c)
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return ErrSuperseded
	}
	if err != nil {
		m.channels = nil
		m.lastErr = err
		return err
	}
	m.channels = channels
	m.lastErr = nil
	m.log.Debug("channels fetched", "category", categoryID, "count", len(channels))
	return nil
}

// Categories returns a copy of the session's category list.
func (m *Manager) Categories() []models.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Category, len(m.categories))
	copy(out, m.categories)
	return out
}

// Channels returns a copy of the most recently fetched channel list.
func (m *Manager) Channels() []models.Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Channel, len(m.channels))
	copy(out, m.channels)
	return out
}

// StreamURL synthesizes the playable address for a channel without any
// network traffic. The Stalker form is a placeholder that must still be
// resolved through ResolveStreamURL before playback.
func (m *Manager) StreamURL(channelID int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loggedIn {
		return "", false
	}

	switch m.mode {
	case models.PlaylistTypeXtream:
		return fmt.Sprintf("%s/live/%s/%s/%d.ts", m.baseURL, m.username, m.password, channelID), true
	case models.PlaylistTypeStalker:
		return fmt.Sprintf("%s/%d", m.baseURL, channelID), true
	case models.PlaylistTypeM3U:
		for _, c := range m.allChannels {
			if c.ID == channelID {
				return c.DirectURL, true
			}
		}
	}
	return "", false
}

// ResolveStreamURL returns the address the media engine should load. Only
// the Stalker backend needs a network round trip here; the other protocols
// resolve from session state.
func (m *Manager) ResolveStreamURL(ctx context.Context, channelID int) (string, error) {
	m.mu.Lock()
	if !m.loggedIn {
		m.mu.Unlock()
		return "", models.ErrNotLoggedIn
	}
	mode := m.mode
	sc := m.stalkerClient
	m.mu.Unlock()

	if mode == models.PlaylistTypeStalker {
		address, err := sc.CreateLink(ctx, int64(channelID))
		if err != nil {
			return "", fmt.Errorf("%w: %v", models.ErrLinkUnresolved, err)
		}
		return address, nil
	}

	address, ok := m.StreamURL(channelID)
	if !ok || address == "" {
		return "", fmt.Errorf("%w: channel %d", models.ErrLinkUnresolved, channelID)
	}
	return address, nil
}

// IsLoggedIn reports whether a session is established.
func (m *Manager) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loggedIn
}

// Mode returns the active backend protocol, or "" before login.
func (m *Manager) Mode() models.PlaylistType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// BaseURL returns the sanitized base address of the active session. For
// Stalker sessions this is the portal root adopted by the handshake.
func (m *Manager) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// LastError returns the most recent session error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Logout resets the session. In-flight requests are not cancelled; their
// results are discarded when they complete under the old generation.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	m.log.Info("logged out")
}

// resetLocked wipes all session state and advances the generation. Caller
// holds the mutex.
func (m *Manager) resetLocked() {
	m.generation = uuid.New()
	m.mode = ""
	m.baseURL = ""
	m.username = ""
	m.password = ""
	m.loggedIn = false
	m.lastErr = nil
	m.categories = nil
	m.channels = nil
	m.allChannels = nil
	m.xtreamClient = nil
	m.stalkerClient = nil
}

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvlink/tvlink/internal/models"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing scheme", "portal.example:8080", "http://portal.example:8080"},
		{"trailing slash", "http://portal.example/", "http://portal.example"},
		{"whitespace", "  http://portal.example \n", "http://portal.example"},
		{"playlist keeps slashless form", "http://x/list.m3u", "http://x/list.m3u"},
		{"playlist m3u8 case insensitive", "http://x/list.M3U8", "http://x/list.M3U8"},
		{"https preserved", "https://portal.example/", "https://portal.example"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeURL(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, SanitizeURL(got), "sanitization should be idempotent")
		})
	}
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		url  string
		mac  string
		want models.PlaylistType
	}{
		{"mac wins", "http://x/list.m3u", "00:1A:79:00:00:01", models.PlaylistTypeStalker},
		{"playlist suffix", "http://x/list.m3u", "", models.PlaylistTypeM3U},
		{"m3u8 suffix", "http://x/live.M3U8", "", models.PlaylistTypeM3U},
		{"default xtream", "http://portal.example:8080", "", models.PlaylistTypeXtream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectType(tt.url, tt.mac))
		})
	}
}

func xtreamBackend(t *testing.T, status string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "":
			w.Write([]byte(`{"user_info":{"username":"u","status":"` + status + `"},"server_info":{}}`))
		case "get_live_categories":
			w.Write([]byte(`[{"category_id":"1","category_name":"News"},{"category_id":"2","category_name":"Sports"}]`))
		case "get_live_streams":
			w.Write([]byte(`[{"stream_id":101,"name":"Channel One","stream_type":"live","category_id":"1"},{"stream_id":"102","name":"Channel Two","stream_type":"live","category_id":"1"}]`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLoginXtreamActive(t *testing.T) {
	server := xtreamBackend(t, "Active")
	mgr := NewManager(Options{HTTPClient: server.Client()})

	err := mgr.Login(context.Background(), LoginRequest{
		URL:      server.URL + "/",
		Username: "u",
		Password: "p",
	})
	require.NoError(t, err)
	assert.True(t, mgr.IsLoggedIn())
	assert.Equal(t, models.PlaylistTypeXtream, mgr.Mode())
	assert.Equal(t, server.URL, mgr.BaseURL(), "trailing slash removed")

	categories := mgr.Categories()
	require.Len(t, categories, 2)
	assert.Equal(t, "News", categories[0].Name)
}

func TestLoginXtreamExpired(t *testing.T) {
	server := xtreamBackend(t, "Expired")
	mgr := NewManager(Options{HTTPClient: server.Client()})

	err := mgr.Login(context.Background(), LoginRequest{URL: server.URL, Username: "u", Password: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAuthRejected)
	assert.False(t, mgr.IsLoggedIn())
	assert.Error(t, mgr.LastError())
}

func TestLoginReplacesFailedOverPrevious(t *testing.T) {
	good := xtreamBackend(t, "Active")
	mgr := NewManager(Options{HTTPClient: good.Client()})

	require.NoError(t, mgr.Login(context.Background(), LoginRequest{URL: good.URL, Username: "u", Password: "p"}))
	require.True(t, mgr.IsLoggedIn())

	bad := xtreamBackend(t, "Banned")
	err := mgr.Login(context.Background(), LoginRequest{URL: bad.URL, Username: "u", Password: "p"})
	require.Error(t, err)
	assert.False(t, mgr.IsLoggedIn(), "failed login must not keep the previous session")
	assert.Empty(t, mgr.Categories())
}

func TestFetchChannelsXtream(t *testing.T) {
	server := xtreamBackend(t, "Active")
	mgr := NewManager(Options{HTTPClient: server.Client()})
	require.NoError(t, mgr.Login(context.Background(), LoginRequest{URL: server.URL, Username: "u", Password: "p"}))

	require.NoError(t, mgr.FetchChannels(context.Background(), "1"))
	channels := mgr.Channels()
	require.Len(t, channels, 2)
	assert.Equal(t, 101, channels[0].ID)
	assert.Equal(t, 102, channels[1].ID, "string stream_id decodes")
	assert.Equal(t, models.KindLive, channels[0].Kind)
}

func TestFetchChannelsRequiresLogin(t *testing.T) {
	mgr := NewManager(Options{})
	err := mgr.FetchChannels(context.Background(), "1")
	assert.ErrorIs(t, err, models.ErrNotLoggedIn)
}

func TestStreamURLXtream(t *testing.T) {
	server := xtreamBackend(t, "Active")
	mgr := NewManager(Options{HTTPClient: server.Client()})
	require.NoError(t, mgr.Login(context.Background(), LoginRequest{URL: server.URL, Username: "user1", Password: "pass1"}))

	address, ok := mgr.StreamURL(42)
	require.True(t, ok)
	assert.Equal(t, server.URL+"/live/user1/pass1/42.ts", address)
}

func TestStreamURLNotLoggedIn(t *testing.T) {
	mgr := NewManager(Options{})
	_, ok := mgr.StreamURL(1)
	assert.False(t, ok)
}

func stalkerBackend(t *testing.T, withGenres bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/c/") {
			// Only the /c context path answers, exercising candidate order.
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.URL.Query().Get("action") {
		case "handshake":
			w.Write([]byte(`{"js":{"token":"tok"}}`))
		case "get_genres":
			if !withGenres {
				w.Write([]byte(`not json`))
				return
			}
			w.Write([]byte(`{"js":[{"id":"5","title":"Movies"}]}`))
		case "get_ordered_list":
			if r.URL.Query().Get("p") == "1" {
				w.Write([]byte(`{"js":{"data":[{"id":"70","name":"Film One"},{"id":"71","name":"Film Two"}]}}`))
			} else {
				w.Write([]byte(`{"js":{"data":[]}}`))
			}
		case "get_all_channels":
			w.Write([]byte(`{"js":[{"id":"1","name":"A"},{"id":"2","name":"B"},{"id":"3","name":"C"}]}`))
		case "create_link":
			w.Write([]byte(`{"js":{"cmd":"ffmpeg http://cdn.example/play?stream=&token=z"}}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLoginStalkerAdoptsCandidate(t *testing.T) {
	server := stalkerBackend(t, true)
	mgr := NewManager(Options{HTTPClient: server.Client()})

	err := mgr.Login(context.Background(), LoginRequest{URL: server.URL, MAC: "00:1A:79:AA:BB:CC"})
	require.NoError(t, err)
	assert.Equal(t, models.PlaylistTypeStalker, mgr.Mode())
	assert.Equal(t, server.URL+"/c", mgr.BaseURL(), "handshake adopts the /c candidate")

	categories := mgr.Categories()
	require.Len(t, categories, 1)
	assert.Equal(t, "5", categories[0].ID)
	assert.Equal(t, "Movies", categories[0].Name)
}

func TestLoginStalkerGenreFallback(t *testing.T) {
	server := stalkerBackend(t, false)
	mgr := NewManager(Options{HTTPClient: server.Client()})

	err := mgr.Login(context.Background(), LoginRequest{URL: server.URL, MAC: "00:1A:79:AA:BB:CC"})
	require.NoError(t, err)

	categories := mgr.Categories()
	require.Len(t, categories, 1)
	assert.Equal(t, AllChannelsCategoryID, categories[0].ID)
	assert.Equal(t, AllChannelsCategoryName, categories[0].Name)
	assert.Len(t, mgr.Channels(), 3)
}

func TestFetchChannelsStalkerPagination(t *testing.T) {
	server := stalkerBackend(t, true)
	mgr := NewManager(Options{HTTPClient: server.Client()})
	require.NoError(t, mgr.Login(context.Background(), LoginRequest{URL: server.URL, MAC: "00:1A:79:AA:BB:CC"}))

	require.NoError(t, mgr.FetchChannels(context.Background(), "5"))
	channels := mgr.Channels()
	require.Len(t, channels, 2)
	assert.Equal(t, 70, channels[0].ID)
	assert.Equal(t, "5", channels[0].CategoryID)
}

func TestResolveStreamURLStalker(t *testing.T) {
	server := stalkerBackend(t, true)
	mgr := NewManager(Options{HTTPClient: server.Client()})
	require.NoError(t, mgr.Login(context.Background(), LoginRequest{URL: server.URL, MAC: "00:1A:79:AA:BB:CC"}))

	address, err := mgr.ResolveStreamURL(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.example/play?stream=42&token=z", address)
}

func TestLoginStalkerHandshakeExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	mgr := NewManager(Options{HTTPClient: server.Client()})
	err := mgr.Login(context.Background(), LoginRequest{URL: server.URL, MAC: "00:1A:79:AA:BB:CC"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrHandshakeExhausted)
	assert.False(t, mgr.IsLoggedIn())
}

const testPlaylist = `#EXTM3U
#EXTINF:-1 tvg-logo="http://x/logo.png" group-title="Sports",Channel A
http://x/a.ts
#EXTINF:-1 group-title="News",Channel B
http://x/b.ts
#EXTINF:-1,Channel C
http://x/c.ts
`

func m3uBackend(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/list.m3u") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(testPlaylist))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLoginM3U(t *testing.T) {
	server := m3uBackend(t)
	mgr := NewManager(Options{HTTPClient: server.Client()})

	err := mgr.Login(context.Background(), LoginRequest{URL: server.URL + "/list.m3u"})
	require.NoError(t, err)
	assert.Equal(t, models.PlaylistTypeM3U, mgr.Mode())

	categories := mgr.Categories()
	require.Len(t, categories, 3)
	// Sorted lexicographically, ids are the group names.
	assert.Equal(t, "News", categories[0].ID)
	assert.Equal(t, "Sports", categories[1].ID)
	assert.Equal(t, "Uncategorized", categories[2].ID)

	channels := mgr.Channels()
	require.Len(t, channels, 3)
	assert.Equal(t, 1, channels[0].ID)
	assert.Equal(t, "Channel A", channels[0].Name)
	assert.Equal(t, "http://x/logo.png", channels[0].IconURL)
	assert.Equal(t, "http://x/a.ts", channels[0].DirectURL)
}

func TestFetchChannelsM3UFilters(t *testing.T) {
	server := m3uBackend(t)
	mgr := NewManager(Options{HTTPClient: server.Client()})
	require.NoError(t, mgr.Login(context.Background(), LoginRequest{URL: server.URL + "/list.m3u"}))

	require.NoError(t, mgr.FetchChannels(context.Background(), "News"))
	channels := mgr.Channels()
	require.Len(t, channels, 1)
	assert.Equal(t, "Channel B", channels[0].Name)
}

func TestStreamURLM3U(t *testing.T) {
	server := m3uBackend(t)
	mgr := NewManager(Options{HTTPClient: server.Client()})
	require.NoError(t, mgr.Login(context.Background(), LoginRequest{URL: server.URL + "/list.m3u"}))

	address, ok := mgr.StreamURL(2)
	require.True(t, ok)
	assert.Equal(t, "http://x/b.ts", address)

	_, ok = mgr.StreamURL(999)
	assert.False(t, ok)

	_, err := mgr.ResolveStreamURL(context.Background(), 999)
	assert.ErrorIs(t, err, models.ErrLinkUnresolved)
}

func TestLogoutClearsSession(t *testing.T) {
	server := xtreamBackend(t, "Active")
	mgr := NewManager(Options{HTTPClient: server.Client()})
	require.NoError(t, mgr.Login(context.Background(), LoginRequest{URL: server.URL, Username: "u", Password: "p"}))

	mgr.Logout()
	assert.False(t, mgr.IsLoggedIn())
	assert.Empty(t, mgr.Categories())
	assert.Empty(t, mgr.Channels())
	_, ok := mgr.StreamURL(101)
	assert.False(t, ok)
}

func TestForcedModeOverridesHeuristics(t *testing.T) {
	server := m3uBackend(t)
	mgr := NewManager(Options{HTTPClient: server.Client()})

	// The MAC would select the portal protocol, but the forced mode wins.
	err := mgr.Login(context.Background(), LoginRequest{
		URL:    server.URL + "/list.m3u",
		MAC:    "00:1A:79:AA:BB:CC",
		Forced: models.PlaylistTypeM3U,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlaylistTypeM3U, mgr.Mode())
}

// Package xtream provides a Go client for the live-TV surface of the
// Xtream Codes API.
//
// Xtream Codes is an IPTV panel system that exposes a REST API using
// username/password query authentication against player_api.php.
//
// # Basic Usage
//
//	client := xtream.NewClient("http://example.com:8080", "username", "password")
//
//	// Verify credentials; fails unless the account status is "Active"
//	info, err := client.Authenticate(ctx)
//
//	// List live stream categories
//	categories, err := client.GetLiveCategories(ctx)
//
//	// List streams in a specific category
//	streams, err := client.GetLiveStreams(ctx, &xtream.StreamsOptions{CategoryID: "1"})
//
//	// Playable address for a live stream
//	url := client.LiveStreamURL(12345, "ts")
//
// # API Endpoints
//
// The Xtream Codes API uses the following endpoint pattern:
//
//	{baseURL}/player_api.php?username={user}&password={pass}&action={action}
//
// Actions used by this client:
//   - (no action): Get server info and authentication status
//   - get_live_categories: List live stream categories
//   - get_live_streams: List live streams (optional: category_id)
//
// Live streams play from {baseURL}/live/{user}/{pass}/{streamID}.{ext}.
package xtream

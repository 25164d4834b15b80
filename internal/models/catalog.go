package models

// KindLive is the only channel kind produced by the live-TV clients.
const KindLive = "live"

// Category is a channel grouping surfaced by a backend.
// Xtream and Stalker ids come from the backend; M3U ids are the group name.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Channel is a single live channel. A channel always belongs to exactly one
// category id present in the session's category list at the time it was
// produced.
type Channel struct {
	// ID is backend-provided for Xtream/Stalker and a synthetic 1-based
	// sequence for M3U.
	ID int `json:"id"`

	Name       string `json:"name"`
	Kind       string `json:"kind"`
	IconURL    string `json:"icon_url,omitempty"`
	CategoryID string `json:"category_id"`

	// DirectURL is the playable address, populated only for M3U channels.
	// Xtream and Stalker addresses are synthesized or resolved on demand.
	DirectURL string `json:"direct_url,omitempty"`
}

// StreamStats is a read-only snapshot produced by the external media engine.
type StreamStats struct {
	Resolution string `json:"resolution"`
	Bitrate    string `json:"bitrate"`
	ReadBytes  string `json:"read_bytes"`
	LostFrames int    `json:"lost_frames"`
	VideoCodec string `json:"video_codec"`
	AudioCodec string `json:"audio_codec"`
}

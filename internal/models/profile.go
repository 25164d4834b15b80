package models

import "strings"

// PlaylistType identifies which backend protocol a profile speaks.
type PlaylistType string

const (
	// PlaylistTypeXtream represents an Xtream-Codes HTTP API backend.
	PlaylistTypeXtream PlaylistType = "xtream"
	// PlaylistTypeStalker represents a Stalker/MAG portal backend.
	PlaylistTypeStalker PlaylistType = "stalker"
	// PlaylistTypeM3U represents a raw M3U playlist backend.
	PlaylistTypeM3U PlaylistType = "m3u"
)

// Valid returns true if the playlist type is one of the known backends.
func (t PlaylistType) Valid() bool {
	switch t {
	case PlaylistTypeXtream, PlaylistTypeStalker, PlaylistTypeM3U:
		return true
	}
	return false
}

// Profile is a saved connection profile for one backend.
type Profile struct {
	BaseModel

	// Name is a user-friendly name for the profile.
	// Must be unique across all profiles.
	Name string `gorm:"uniqueIndex;not null;size:255" json:"name"`

	// Type identifies the backend protocol.
	Type PlaylistType `gorm:"not null;size:20" json:"type"`

	// URL is the backend base URL or the playlist URL for M3U profiles.
	URL string `gorm:"not null;size:2048" json:"url"`

	// Username for Xtream authentication.
	Username string `gorm:"size:255" json:"username,omitempty"`

	// Password for Xtream authentication.
	Password string `gorm:"size:255" json:"password,omitempty"`

	// MAC is the device address for Stalker portal authentication.
	MAC string `gorm:"size:64" json:"mac,omitempty"`
}

// TableName returns the table name for Profile.
func (Profile) TableName() string {
	return "profiles"
}

// Validate checks the profile for required fields per backend type.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(p.URL) == "" {
		return ErrURLRequired
	}
	if !p.Type.Valid() {
		return ErrInvalidPlaylistType
	}
	switch p.Type {
	case PlaylistTypeXtream:
		if p.Username == "" || p.Password == "" {
			return ErrXtreamCredentialsRequired
		}
	case PlaylistTypeStalker:
		if strings.TrimSpace(p.MAC) == "" {
			return ErrMACRequired
		}
	}
	return nil
}

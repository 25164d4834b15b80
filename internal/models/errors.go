package models

import "errors"

// Domain error taxonomy shared across the protocol clients and the session
// router. Callers classify failures with errors.Is.
var (
	// ErrInvalidAddress indicates a malformed or unparseable URL input.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrTransport indicates a network-level failure or timeout.
	ErrTransport = errors.New("transport error")

	// ErrDecode indicates a response that did not match the expected shape.
	ErrDecode = errors.New("decode error")

	// ErrAuthRejected indicates valid transport but rejected or inactive
	// credentials.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrHandshakeExhausted indicates all Stalker candidate paths failed.
	ErrHandshakeExhausted = errors.New("cannot connect to portal")

	// ErrLinkUnresolved indicates the portal returned no usable playable
	// address.
	ErrLinkUnresolved = errors.New("no playable address")

	// ErrPlaybackExhausted indicates automatic reconnection attempts were
	// exhausted.
	ErrPlaybackExhausted = errors.New("playback retries exhausted")

	// ErrNotLoggedIn indicates an operation that requires an established
	// session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Validation errors for stored profiles.
var (
	// ErrNameRequired indicates a required name field is empty.
	ErrNameRequired = errors.New("name is required")

	// ErrURLRequired indicates a required URL field is empty.
	ErrURLRequired = errors.New("url is required")

	// ErrInvalidPlaylistType indicates an unknown playlist type.
	ErrInvalidPlaylistType = errors.New("invalid playlist type: must be 'xtream', 'stalker' or 'm3u'")

	// ErrXtreamCredentialsRequired indicates missing Xtream credentials.
	ErrXtreamCredentialsRequired = errors.New("username and password are required for xtream profiles")

	// ErrMACRequired indicates a missing MAC address on a Stalker profile.
	ErrMACRequired = errors.New("mac address is required for stalker profiles")
)

package xtream

import (
	"encoding/json"
	"strconv"
	"time"
)

// StatusActive is the user_info status value of a usable account.
const StatusActive = "Active"

// AuthInfo contains the combined server and user information returned by the API.
type AuthInfo struct {
	UserInfo   UserInfo   `json:"user_info"`
	ServerInfo ServerInfo `json:"server_info"`
}

// UserInfo contains user account information.
type UserInfo struct {
	Username          string  `json:"username"`
	Message           string  `json:"message"`
	Auth              FlexInt `json:"auth"`
	Status            string  `json:"status"`
	ExpDate           FlexInt `json:"exp_date"`
	IsTrial           FlexInt `json:"is_trial"`
	ActiveConnections FlexInt `json:"active_cons"`
	MaxConnections    FlexInt `json:"max_connections"`
}

// IsActive returns true if the account status is "Active".
// The backend does not reliably distinguish wrong credentials from expired
// accounts, so any other status is treated as a rejected login.
func (u *UserInfo) IsActive() bool {
	return u.Status == StatusActive
}

// ExpirationTime returns the account expiration time, or the zero time when
// the backend does not report one.
func (u *UserInfo) ExpirationTime() time.Time {
	if u.ExpDate.Int() == 0 {
		return time.Time{}
	}
	return time.Unix(u.ExpDate.Int(), 0)
}

// ServerInfo contains server configuration information.
type ServerInfo struct {
	URL            string  `json:"url"`
	Port           FlexInt `json:"port"`
	HTTPSPort      FlexInt `json:"https_port"`
	ServerProtocol string  `json:"server_protocol"`
	Timezone       string  `json:"timezone"`
}

// Category represents a live content category.
type Category struct {
	CategoryID   FlexString `json:"category_id"`
	CategoryName string     `json:"category_name"`
	ParentID     FlexInt    `json:"parent_id"`
}

// Stream represents a live stream.
type Stream struct {
	Num        FlexInt    `json:"num"`
	Name       string     `json:"name"`
	StreamType string     `json:"stream_type"`
	StreamID   FlexInt    `json:"stream_id"`
	StreamIcon string     `json:"stream_icon"`
	CategoryID FlexString `json:"category_id"`
}

// FlexInt handles JSON numbers that may be strings or integers.
type FlexInt int64

// Int returns the integer value.
func (f FlexInt) Int() int64 {
	return int64(f)
}

// UnmarshalJSON handles both string and number JSON values.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	// Try as number first
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}

	// Try as string
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexInt(n)
		return nil
	}

	*f = 0
	return nil
}

// FlexString handles JSON values that may be strings or numbers.
type FlexString string

// String returns the string value.
func (f FlexString) String() string {
	return string(f)
}

// UnmarshalJSON handles both string and number JSON values.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	// Try as string first
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	// Try as number
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	*f = ""
	return nil
}

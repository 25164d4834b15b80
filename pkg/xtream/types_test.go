package xtream

import (
	"encoding/json"
	"testing"
)

func TestFlexIntUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"number", `42`, 42},
		{"string number", `"42"`, 42},
		{"empty string", `""`, 0},
		{"garbage string", `"abc"`, 0},
		{"null", `null`, 0},
		{"negative", `-7`, -7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexInt
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Int() != tt.want {
				t.Errorf("got %d, want %d", f.Int(), tt.want)
			}
		})
	}
}

func TestFlexStringUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"string", `"hello"`, "hello"},
		{"number", `7`, "7"},
		{"float", `1.5`, "1.5"},
		{"null", `null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexString
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.String() != tt.want {
				t.Errorf("got %q, want %q", f.String(), tt.want)
			}
		})
	}
}

func TestStreamDecodePolymorphic(t *testing.T) {
	// Some portals send numeric fields as strings and category ids as numbers.
	data := `{"num":"3","name":"News HD","stream_type":"live","stream_id":"1001","stream_icon":"http://x/i.png","category_id":5}`

	var s Stream
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.StreamID.Int() != 1001 {
		t.Errorf("stream_id: got %d, want 1001", s.StreamID.Int())
	}
	if s.CategoryID.String() != "5" {
		t.Errorf("category_id: got %q, want \"5\"", s.CategoryID.String())
	}
	if s.Name != "News HD" {
		t.Errorf("name: got %q", s.Name)
	}
}

func TestUserInfoIsActive(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"Active", true},
		{"Expired", false},
		{"Banned", false},
		{"active", false},
		{"", false},
	}

	for _, tt := range tests {
		u := UserInfo{Status: tt.status}
		if got := u.IsActive(); got != tt.want {
			t.Errorf("IsActive(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

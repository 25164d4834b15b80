// Package m3u provides streaming M3U playlist parsing.
// It supports standard M3U and extended M3U (M3U8) formats with EXTINF
// metadata, and transparently handles gzip, bzip2, and xz compressed input.
package m3u

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/ulikunitz/xz"
)

// Placeholder values for entries missing metadata.
const (
	// UnnamedChannel is used when an EXTINF line carries no display name.
	UnnamedChannel = "Unnamed Channel"

	// UncategorizedGroup is used when an EXTINF line has no group-title
	// attribute.
	UncategorizedGroup = "Uncategorized"
)

// Entry represents a single channel entry in an M3U playlist.
type Entry struct {
	// Name is the display name taken from the text after the last comma
	// of the EXTINF line.
	Name string

	// Logo is the URL from the tvg-logo attribute, if present.
	Logo string

	// Group is the category from the group-title attribute, or
	// UncategorizedGroup when absent.
	Group string

	// URL is the stream address, taken verbatim from the line following
	// the EXTINF directive.
	URL string
}

// Parser provides streaming M3U parsing with callback-based processing.
type Parser struct {
	// OnEntry is called for each completed entry (an EXTINF directive
	// followed by an address line).
	OnEntry func(entry *Entry) error
}

// Parse parses an M3U playlist from a reader, calling OnEntry for each
// channel. Lines may use any line-ending convention.
//
// The parse is a single pass holding one pending entry: an EXTINF line
// replaces whatever pending entry existed before (an EXTINF with no
// following address line is silently discarded), and an address line
// produces a channel only when a pending entry exists.
func (p *Parser) Parse(r io.Reader) error {
	if p.OnEntry == nil {
		return fmt.Errorf("OnEntry callback is required")
	}

	scanner := bufio.NewScanner(r)
	// Some playlists have very long URL lines
	const maxLineSize = 1024 * 1024
	buf := make([]byte, maxLineSize)
	scanner.Buffer(buf, maxLineSize)

	var pending *Entry
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#EXTINF") {
			pending = parseExtinf(line)
			continue
		}

		// Other directives (#EXTM3U and friends) are ignored
		if strings.HasPrefix(line, "#") {
			continue
		}

		// Address line: commits the pending entry, if any
		if pending == nil {
			continue
		}
		pending.URL = line
		if err := p.OnEntry(pending); err != nil {
			return fmt.Errorf("callback error at line %d: %w", lineNum, err)
		}
		pending = nil
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning playlist: %w", err)
	}

	return nil
}

// ParseCompressed parses a potentially compressed M3U playlist.
// It auto-detects compression based on magic bytes.
func (p *Parser) ParseCompressed(r io.Reader) error {
	br := bufio.NewReader(r)

	header, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return fmt.Errorf("peeking header: %w", err)
	}

	var reader io.Reader = br

	switch {
	case len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gzr.Close()
		reader = gzr

	case len(header) >= 3 && header[0] == 'B' && header[1] == 'Z' && header[2] == 'h':
		reader = bzip2.NewReader(br)

	case len(header) >= 6 && header[0] == 0xfd && header[1] == '7' && header[2] == 'z' && header[3] == 'X' && header[4] == 'Z' && header[5] == 0x00:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return fmt.Errorf("creating xz reader: %w", err)
		}
		reader = xzr
	}

	return p.Parse(reader)
}

// parseExtinf extracts the display name and known attributes from an EXTINF
// line. The name is everything after the last comma; missing values get
// their placeholder defaults.
func parseExtinf(line string) *Entry {
	entry := &Entry{
		Name:  UnnamedChannel,
		Group: UncategorizedGroup,
	}

	if i := strings.LastIndex(line, ","); i >= 0 {
		if name := strings.TrimSpace(line[i+1:]); name != "" {
			entry.Name = name
		}
	}

	if logo, ok := attrValue(line, "tvg-logo"); ok {
		entry.Logo = logo
	}
	if group, ok := attrValue(line, "group-title"); ok {
		entry.Group = group
	}

	return entry
}

// attrValue returns the first occurrence of key="value" on the line.
func attrValue(line, key string) (string, bool) {
	prefix := key + `="`
	i := strings.Index(line, prefix)
	if i < 0 {
		return "", false
	}
	rest := line[i+len(prefix):]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

package sources

// YouTube implementation is split across three files by responsibility:
//   youtube.go            : video reference parsing and JSON helpers
//   youtube_innertube.go  : Innertube API types, constants, and low-level HTTP primitives
//   youtube_transcript.go : transcript fetching (page scrape, engagement panel, ANDROID player)

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidVideo is returned for references that do not name a YouTube video.
var ErrInvalidVideo = errors.New("not a YouTube video URL or id")

var videoIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ParseVideoID extracts the 11-char video id from a watch, youtu.be, shorts,
// embed or live URL, or accepts a bare id.
func ParseVideoID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if videoIDRE.MatchString(ref) {
		return ref, nil
	}
	if !strings.Contains(ref, "://") {
		ref = "https://" + ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", ErrInvalidVideo
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	path := strings.Trim(u.EscapedPath(), "/")

	var id string
	switch host {
	case "youtu.be":
		id, _, _ = strings.Cut(path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if path == "watch" {
			id = u.Query().Get("v")
			break
		}
		prefix, rest, ok := strings.Cut(path, "/")
		if ok && (prefix == "shorts" || prefix == "embed" || prefix == "live" || prefix == "v") {
			id, _, _ = strings.Cut(rest, "/")
		}
	}
	if !videoIDRE.MatchString(id) {
		return "", ErrInvalidVideo
	}
	return id, nil
}

// extractJSON returns the balanced JSON object at the start of b, or nil.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

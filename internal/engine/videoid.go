package engine

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// videoIDRe matches a canonical 11-character YouTube video identifier.
var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID extracts the canonical 11-character video ID from a watch URL,
// embed URL, short link, or raw identifier.
func ParseVideoID(s string) (string, error) {
	candidate := strings.TrimSpace(s)
	if candidate == "" {
		return "", E(CodeInvalidArgument, "empty URL or video identifier")
	}
	if videoIDRe.MatchString(candidate) {
		return candidate, nil
	}

	u, err := url.Parse(candidate)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", Ef(CodeInvalidArgument, "not a video URL or ID: %q", candidate)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.Trim(strings.TrimPrefix(u.Path, "/embed/"), "/")
		default:
			return "", Ef(CodeInvalidArgument, "no video ID in URL path %q", u.Path)
		}
	default:
		return "", Ef(CodeInvalidArgument, "unrecognized host %q", u.Hostname())
	}

	if !videoIDRe.MatchString(id) {
		return "", Ef(CodeInvalidArgument, "could not extract a video ID from %q", candidate)
	}
	return id, nil
}

// WatchURL returns the canonical public watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// CiteURL returns a watch URL anchored to the given start time, truncated to
// whole seconds.
func CiteURL(videoID string, start float64) string {
	seconds := int(start)
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%s&t=%ds", WatchURL(videoID), seconds)
}

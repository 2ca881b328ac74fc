// Package embed turns heterogeneous third-party stream URLs into embeddable
// player URLs. Resolution is a pure function: no network access, no errors.
// A URL that matches no rule passes through unmodified — an unplayable URL
// is a degraded state, not a failure.
package embed

import (
	"fmt"
	"net/url"
	"strings"

	"sanctuary-live/internal/domain"
)

// Resolve returns the playable embed URL for a stream.
//
// Priority order, first match wins:
//  1. An EmbedURL already containing "embed" is trusted as-is.
//  2. The StreamURL is matched against the known provider forms
//     (YouTube watch/short-link/live, Facebook).
//  3. Fall through to EmbedURL if present, else StreamURL unmodified.
func Resolve(s domain.Stream) string {
	if strings.Contains(s.EmbedURL, "embed") {
		return s.EmbedURL
	}

	if embedded, ok := fromStreamURL(s.StreamURL); ok {
		return embedded
	}

	if s.EmbedURL != "" {
		return s.EmbedURL
	}
	return s.StreamURL
}

// fromStreamURL dispatches on the raw URL's shape. Provider parsers are kept
// separate so each stays testable in isolation.
func fromStreamURL(raw string) (string, bool) {
	if id, ok := parseYouTubeWatch(raw); ok {
		return youTubeEmbedURL(id), true
	}
	if id, ok := parseYouTubeShortLink(raw); ok {
		return youTubeEmbedURL(id), true
	}
	if id, ok := parseYouTubeLive(raw); ok {
		return youTubeEmbedURL(id), true
	}
	if strings.Contains(raw, "facebook.com/") {
		return facebookEmbedURL(raw), true
	}
	return "", false
}

// parseYouTubeWatch extracts the video id from youtube.com/watch?v=... URLs.
// The id runs up to the next "&"; extra query parameters are ignored.
func parseYouTubeWatch(raw string) (string, bool) {
	const marker = "youtube.com/watch?v="
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return "", false
	}
	id := raw[idx+len(marker):]
	if amp := strings.Index(id, "&"); amp >= 0 {
		id = id[:amp]
	}
	if id == "" {
		return "", false
	}
	return id, true
}

// parseYouTubeShortLink extracts the video id from youtu.be/... URLs.
// The id is the path segment up to "?".
func parseYouTubeShortLink(raw string) (string, bool) {
	const marker = "youtu.be/"
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return "", false
	}
	id := raw[idx+len(marker):]
	if q := strings.Index(id, "?"); q >= 0 {
		id = id[:q]
	}
	if id == "" {
		return "", false
	}
	return id, true
}

// parseYouTubeLive extracts the video id from youtube.com/live/... URLs
func parseYouTubeLive(raw string) (string, bool) {
	const marker = "youtube.com/live/"
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return "", false
	}
	id := raw[idx+len(marker):]
	if q := strings.Index(id, "?"); q >= 0 {
		id = id[:q]
	}
	if id == "" {
		return "", false
	}
	return id, true
}

func youTubeEmbedURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s", id)
}

// facebookEmbedURL wraps a facebook.com URL in the video plugin form.
// The whole raw URL is carried in the href parameter.
func facebookEmbedURL(raw string) string {
	return fmt.Sprintf(
		"https://www.facebook.com/plugins/video.php?href=%s&show_text=false&autoplay=false",
		url.QueryEscape(raw),
	)
}

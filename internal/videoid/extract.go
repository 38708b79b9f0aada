// Package videoid derives canonical video identifiers from video URLs.
package videoid

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidURL is matched by every *InvalidURLError via errors.Is.
var ErrInvalidURL = errors.New("invalid video URL")

// VideoID is the canonical, non-empty identifier of a video.
type VideoID string

func (id VideoID) String() string {
	return string(id)
}

// InvalidURLError reports a URL that carries no v= query parameter.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid video URL %q: no v= parameter", e.URL)
}

// Is reports ErrInvalidURL as a match.
func (e *InvalidURLError) Is(target error) bool {
	return target == ErrInvalidURL
}

// vParam matches a v= query parameter delimited by ? or &.
var vParam = regexp.MustCompile(`(?i)[?&]v=([^&#]+)`)

// Extract returns the value of the first v= query parameter in rawURL.
// A bare identifier without query form is not a URL and is rejected.
func Extract(rawURL string) (VideoID, error) {
	m := vParam.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", &InvalidURLError{URL: rawURL}
	}

	id := m[1]
	if unescaped, err := url.QueryUnescape(id); err == nil {
		id = unescaped
	}
	if strings.TrimSpace(id) == "" {
		return "", &InvalidURLError{URL: rawURL}
	}

	return VideoID(id), nil
}

// WatchURL returns the public watch page for id.
func WatchURL(id VideoID) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(string(id))
}

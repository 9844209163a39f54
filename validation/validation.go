package validation

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/nijaru/yt-summary/errors"
)

// Tried in order; the first match wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`embed/([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})`),
}

// ExtractVideoID returns the 11-character video ID found in rawURL.
func ExtractVideoID(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	for _, pattern := range videoIDPatterns {
		if matches := pattern.FindStringSubmatch(rawURL); len(matches) > 1 {
			return matches[1], true
		}
	}
	return "", false
}

// IsYouTubeURL reports whether input should be handled as a video link
// rather than as pasted transcript text.
func IsYouTubeURL(input string) bool {
	return strings.Contains(input, "youtube.com") || strings.Contains(input, "youtu.be")
}

// ValidateURL checks that rawURL is an absolute http(s) URL with a host.
func ValidateURL(rawURL string) error {
	const op = "validation.ValidateURL"

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return errors.InvalidURL(op, nil, "URL is required")
	}

	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return errors.InvalidURL(op, err, "Invalid URL format")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.InvalidURL(op, nil, "URL must start with http or https")
	}

	if parsedURL.Host == "" {
		return errors.InvalidURL(op, nil, "URL must have a host")
	}

	return nil
}

// WithScheme prefixes https:// when input carries no scheme, so that
// "youtu.be/<id>" typed by hand passes ValidateURL.
func WithScheme(input string) string {
	input = strings.TrimSpace(input)
	if input == "" || strings.Contains(input, "://") {
		return input
	}
	return "https://" + input
}

// VideoIDFromURL validates rawURL and extracts its video ID.
func VideoIDFromURL(rawURL string) (string, error) {
	const op = "validation.VideoIDFromURL"

	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	id, ok := ExtractVideoID(rawURL)
	if !ok {
		return "", errors.InvalidURL(op, nil, "Could not find a YouTube video ID in the URL")
	}
	return id, nil
}

package ytdlp

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	youtubeIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	videoIDRegex   = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]{0,63}$`)
)

// ValidateVideoID accepts platform ids made of letters, digits, '_' and '-'
// that do not start with '-'.
func ValidateVideoID(id string) error {
	if !videoIDRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidVideoID, id)
	}
	return nil
}

// ParseVideoID extracts a video id from a bare id or a YouTube URL
// (watch, youtu.be, embed, shorts, live).
func ParseVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidVideoID)
	}
	if !strings.Contains(input, "/") && !strings.Contains(input, "?") {
		if err := ValidateVideoID(input); err != nil {
			return "", err
		}
		return input, nil
	}

	raw := input
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidVideoID, err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	host = strings.TrimPrefix(host, "music.")

	var id string
	switch host {
	case "youtu.be":
		id = firstPathSegment(u.Path)
	case "youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) >= 2 {
			switch segments[0] {
			case "embed", "shorts", "live", "v":
				id = segments[1]
			}
		}
	default:
		return "", fmt.Errorf("%w: unsupported host %q", ErrInvalidVideoID, u.Hostname())
	}

	if !youtubeIDRegex.MatchString(id) {
		return "", fmt.Errorf("%w: no video id in %q", ErrInvalidVideoID, input)
	}
	return id, nil
}

func firstPathSegment(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i]
	}
	return p
}

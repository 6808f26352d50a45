package core

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeTrackLink encodes a media path for use in a URL fragment.
func EncodeTrackLink(path string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(path))
}

// DecodeTrackLink reverses EncodeTrackLink. A leading "#" or "track=" prefix
// is accepted, as is padded input.
func DecodeTrackLink(fragment string) (string, error) {
	s := strings.TrimPrefix(fragment, "#")
	s = strings.TrimPrefix(s, "track=")
	s = strings.TrimRight(s, "=")
	if s == "" {
		return "", fmt.Errorf("empty track link")
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("invalid track link: %w", err)
	}
	return string(raw), nil
}

package format

import "strings"

var absolutePrefixes = []string{"http://", "https://", "//", "data:"}

// ImageURL resolves an image path returned by the backend. Absolute and
// base64 data URLs are returned untouched, relative paths are joined onto
// baseURL. The second result is false for empty input, in which case the
// caller is expected to show its own placeholder.
func ImageURL(baseURL, path string) (string, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", false
	}

	lower := strings.ToLower(path)
	for _, prefix := range absolutePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return path, true
		}
	}

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return "/" + strings.TrimLeft(path, "/"), true
	}
	return base + "/" + strings.TrimLeft(path, "/"), true
}

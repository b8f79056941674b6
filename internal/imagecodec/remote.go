package imagecodec

import (
	"regexp"
	"strings"
)

const (
	// DefaultOrigin is the public origin of the photo bucket.
	DefaultOrigin = "https://autosintese.s3.sa-east-1.amazonaws.com"

	// DefaultPrefix is the path segment every uploaded photo lives under.
	DefaultPrefix = "vehicles"
)

var remoteIDPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// ExtractRemoteID finds the 8-4-4-4-12 hex identifier in the final path
// segment of an uploaded photo reference.
func ExtractRemoteID(ref string) (string, bool) {
	name := stripQuery(ref)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	id := remoteIDPattern.FindString(name)
	return id, id != ""
}

// Locator maps between storage-relative photo paths and their public URLs.
type Locator struct {
	origin string
	prefix string
}

// NewLocator builds a Locator for the storage origin (scheme + host) and the
// leading path segment every photo lives under. Empty values use defaults.
func NewLocator(origin, prefix string) Locator {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		origin = DefaultOrigin
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Locator{origin: origin, prefix: prefix}
}

// Origin returns the storage origin without a trailing slash.
func (l Locator) Origin() string { return l.origin }

// ExtractRemotePath returns the storage-relative path of an uploaded photo.
// URLs on the storage origin are stripped, storage-relative paths pass
// through, and other URLs are cut at the well-known prefix segment.
func (l Locator) ExtractRemotePath(ref string) (string, bool) {
	ref = stripQuery(strings.TrimSpace(ref))
	if ref == "" {
		return "", false
	}
	if rest, ok := strings.CutPrefix(ref, l.origin+"/"); ok && rest != "" {
		return rest, true
	}
	if strings.HasPrefix(ref, l.prefix+"/") {
		return ref, true
	}
	parts := strings.Split(ref, "/")
	for i, part := range parts {
		if part == l.prefix && i < len(parts)-1 {
			return strings.Join(parts[i:], "/"), true
		}
	}
	return "", false
}

// URLFor expands a storage path into a displayable URL. Values that are
// already absolute URLs are returned unchanged.
func (l Locator) URLFor(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	default:
		return l.origin + "/" + strings.TrimPrefix(path, "/")
	}
}

func stripQuery(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}

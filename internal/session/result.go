package session

import (
	"net/url"
	"strings"
)

// EditResult is the image reference returned by a successful edit.
type EditResult struct {
	// Reference is exactly what the service returned.
	Reference string
	// Filename is the service's suggested name, if any.
	Filename string
}

// IsDataURL reports whether the reference embeds the image itself.
func (r EditResult) IsDataURL() bool {
	return strings.HasPrefix(strings.ToLower(r.Reference), "data:")
}

// ResolveResult turns an image reference into something resolvable.
// Absolute references (a scheme or a host is present, which covers data:
// URLs and //host/path) are returned unchanged. Anything else is joined to
// base with exactly one slash. With an absolute base the function is
// idempotent.
func ResolveResult(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if isAbsolute(ref) {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

func isAbsolute(ref string) bool {
	if strings.HasPrefix(strings.ToLower(ref), "data:") || strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil {
		// Malformed escapes still count when a scheme separator is present.
		return strings.Contains(ref, "://")
	}
	return u.Scheme != "" || u.Host != ""
}

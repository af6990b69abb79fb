// Package cors decides which Access-Control-* headers a response carries.
package cors

import "strings"

const (
	AllowMethods = "POST, OPTIONS"
	AllowHeaders = "Content-Type"

	wildcard = "*."
)

// AllowList is an immutable set of permitted origins. Entries are either exact
// origins ("https://jax420.com") or wildcard subdomain patterns
// ("https://*.carrd.co").
type AllowList struct {
	patterns []string
}

// DefaultAllowList holds the origins the chat widget is embedded on.
var DefaultAllowList = NewAllowList(
	"https://jax420.com",
	"https://*.carrd.co",
)

func NewAllowList(patterns ...string) AllowList {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return AllowList{patterns: out}
}

// Allows reports whether origin matches any entry in the list.
func (l AllowList) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	for _, p := range l.patterns {
		if matches(p, origin) {
			return true
		}
	}
	return false
}

func matches(pattern, origin string) bool {
	idx := strings.Index(pattern, wildcard)
	if idx < 0 {
		return pattern == origin
	}
	prefix := pattern[:idx]
	suffix := "." + pattern[idx+len(wildcard):]
	if !strings.HasPrefix(origin, prefix) || !strings.HasSuffix(origin, suffix) {
		return false
	}
	// at least one non-empty label between scheme and domain
	sub := origin[len(prefix):]
	if len(sub) <= len(suffix) {
		return false
	}
	sub = sub[:len(sub)-len(suffix)]
	if strings.ContainsAny(sub, "/:@") {
		return false
	}
	for _, label := range strings.Split(sub, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

// Headers returns the CORS headers for a response to a request carrying
// origin. Allowed origins are echoed back; anything else gets "*".
func (l AllowList) Headers(origin string) map[string]string {
	h := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": AllowMethods,
		"Access-Control-Allow-Headers": AllowHeaders,
	}
	if l.Allows(origin) {
		h["Access-Control-Allow-Origin"] = origin
		h["Vary"] = "Origin"
	}
	return h
}

// Package urlutil provides small URL/host helpers used by the target
// strategy to decide whether a template already carries an absolute URL.
// Adapted from EdgeComet-engine's internal/common/urlutil.
package urlutil

import "strings"

// IsAbsolute reports whether raw looks like an absolute URL (carries a
// scheme), matching spec.md §4.8's "path does not start with http" check
// generalized to any scheme.
func IsAbsolute(raw string) bool {
	idx := strings.Index(raw, "://")
	if idx <= 0 {
		return false
	}
	scheme := raw[:idx]
	for _, c := range scheme {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '+', c == '-', c == '.':
		default:
			return false
		}
	}
	return true
}

// ExtractHostname strips the port from a host string, correctly leaving
// bracketed IPv6 literals alone.
func ExtractHostname(host string) string {
	if strings.HasPrefix(host, "[") {
		if idx := strings.Index(host, "]"); idx != -1 {
			return host[:idx+1]
		}
		return host
	}
	if idx := strings.LastIndex(host, ":"); idx != -1 && strings.Count(host, ":") == 1 {
		return host[:idx]
	}
	return host
}

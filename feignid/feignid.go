// Package feignid generates the invocation correlation IDs attached to
// the pipeline's logger fields and, when unset, injected as an
// X-Request-Id header. Adapted from EdgeComet-engine's
// internal/common/requestid package.
package feignid

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxIDLength is the maximum total length (same as UUID: 36 chars).
	MaxIDLength = 36
	// prefixLength is the length of the random prefix.
	prefixLength = 5
	// maxCustomLength is the max length for the sanitized custom portion:
	// 36 total - 5 prefix - 1 hyphen.
	maxCustomLength = MaxIDLength - prefixLength - 1
)

var (
	sanitizeRe           = regexp.MustCompile(`[^a-zA-Z0-9-]+`)
	consecutiveHyphensRe = regexp.MustCompile(`-+`)
)

// New generates a unique invocation ID from an optional caller-supplied
// hint. If hint is non-empty it is sanitized (keeping only [a-zA-Z0-9-])
// and prefixed with 5 random alphanumeric characters for uniqueness;
// format: "{5-random-chars}-{sanitized-hint}", capped at 36 characters.
// An empty or fully-sanitized-away hint falls back to a plain UUID.
func New(hint string) string {
	sanitized := strings.ReplaceAll(hint, " ", "-")
	sanitized = sanitizeRe.ReplaceAllString(sanitized, "")
	sanitized = consecutiveHyphensRe.ReplaceAllString(sanitized, "-")
	sanitized = strings.Trim(sanitized, "-")

	if sanitized == "" {
		return uuid.New().String()
	}

	if len(sanitized) > maxCustomLength {
		sanitized = sanitized[:maxCustomLength]
	}
	return randomPrefix() + "-" + sanitized
}

func randomPrefix() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return uuid.New().String()[:prefixLength]
	}
	return hex.EncodeToString(buf)[:prefixLength]
}

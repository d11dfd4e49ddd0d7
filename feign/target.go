package feign

import (
	"github.com/gofeign/gofeign/internal/urlutil"
)

// Target supplies the scheme+host (and optional base path) prefix that a
// RequestTemplate's path is resolved against, and names the client for
// logging/metrics/breaker grouping (SPEC_FULL.md §4.8, §4.10).
type Target interface {
	// Name identifies the target for logging, metrics labels, and the
	// circuit-breaker group name.
	Name() string
	// URL returns the current scheme+host+optional-base-path prefix. The
	// handler does not call it; it calls Apply once per attempt.
	URL() string
	// Apply lets a Target rewrite the request template before it's
	// resolved — HardCodedTarget just sets the target prefix; a
	// load-balanced Target may also add a routing header.
	Apply(t *RequestTemplate) error
}

// HardCodedTarget is a Target bound to a single fixed base URL.
type HardCodedTarget struct {
	name    string
	baseURL string
}

// NewHardCodedTarget constructs a Target for name pointing at baseURL
// (must be an absolute URL per urlutil.IsAbsolute, or Apply returns a
// ConfigError).
func NewHardCodedTarget(name, baseURL string) *HardCodedTarget {
	return &HardCodedTarget{name: name, baseURL: baseURL}
}

func (h *HardCodedTarget) Name() string { return h.name }
func (h *HardCodedTarget) URL() string  { return h.baseURL }

func (h *HardCodedTarget) Apply(t *RequestTemplate) error {
	// A URI-argument override (SPEC_FULL.md §4.5 step 2) already set an
	// absolute target during template building; don't clobber it.
	if t.GetTarget() != "" {
		return nil
	}
	if !IsAbsoluteURI(h.baseURL) {
		return &ConfigError{Message: "target " + h.name + ": base url " + h.baseURL + " is not absolute"}
	}
	return t.Target(h.baseURL)
}

// EmptyTarget requires every operation's URI template to already carry an
// absolute URL (SPEC_FULL.md §4.8) — Apply sets no target, and returns a
// ConfigError for a template whose URI is relative and whose target was
// not already set by a URI argument.
type EmptyTarget struct {
	name string
}

// NewEmptyTarget constructs an EmptyTarget identified by name (used only
// for logging/metrics; there is no base URL to resolve against).
func NewEmptyTarget(name string) *EmptyTarget {
	return &EmptyTarget{name: name}
}

func (e *EmptyTarget) Name() string { return e.name }
func (e *EmptyTarget) URL() string  { return "" }

func (e *EmptyTarget) Apply(t *RequestTemplate) error {
	if t.GetTarget() == "" && !IsAbsoluteURI(t.uriTemplate.Raw()) {
		return &ConfigError{Message: "target " + e.name + ": uri template " + t.uriTemplate.Raw() + " is not absolute"}
	}
	return nil
}

// IsAbsoluteURI reports whether uri already carries a scheme, meaning it
// needs no Target prefix to become a valid request URL.
func IsAbsoluteURI(uri string) bool {
	return urlutil.IsAbsolute(uri)
}

// Package metadata holds the passive per-operation records produced by
// the contract parser and consumed by the request template builder. It
// is kept separate from the root feign package so the contract parser
// can depend on it without creating an import cycle back into feign.
package metadata

import (
	"reflect"
	"time"
)

// CollectionFormat controls how a query parameter with multiple values is
// rendered.
type CollectionFormat int

const (
	// Exploded renders "k=v1&k=v2" (the default).
	Exploded CollectionFormat = iota
	// CSV renders "k=v1,v2".
	CSV
	// SSV renders "k=v1 v2".
	SSV
	// TSV renders "k=v1\tv2".
	TSV
	// Pipes renders "k=v1|v2".
	Pipes
)

// Separator returns the string joining multiple values under this format.
// Exploded has no single separator — callers must repeat the parameter
// instead, see the feign package's query template expansion.
func (f CollectionFormat) Separator() string {
	switch f {
	case CSV:
		return ","
	case SSV:
		return " "
	case TSV:
		return "\t"
	case Pipes:
		return "|"
	default:
		return "&"
	}
}

// Options carries per-call and per-client transport knobs. Defined here,
// rather than in the root feign package, so feign/contract can recognize
// an Options-typed parameter by exact reflect.Type equality (the "options
// argument" classification of spec.md §4.4) without importing feign and
// creating an import cycle; the root package exposes this same type as
// feign.Options via a type alias.
type Options struct {
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	FollowRedirects bool
	Decode404       bool
}

// Expander is a custom stringifier registered for one argument index,
// used instead of the default fmt.Sprintf("%v", v) stringification.
type Expander func(arg interface{}) (string, error)

// NoIndex marks an unset argument-index field (BodyIndex, URIIndex, ...).
const NoIndex = -1

// MethodMetadata is the passive record describing one declared
// operation's HTTP shape and its argument-to-template bindings. See
// spec.md §3 / SPEC_FULL.md §3.
type MethodMetadata struct {
	ConfigKey  string
	Method     string
	URITemplate string

	ReturnType reflect.Type

	// HeaderTemplates maps a header name (case preserved at this layer;
	// case-insensitivity is enforced by feign.HeaderTemplate's storage)
	// to an ordered list of value templates.
	HeaderTemplates map[string][]string
	HeaderOrder     []string // preserves declaration order for HeaderTemplates

	// QueryTemplates maps a query parameter name to an ordered list of
	// value templates (empty slice means a pure/flag-style parameter).
	QueryTemplates map[string][]string
	QueryOrder     []string // preserves declaration order for QueryTemplates
	// QueryFormats optionally overrides CollectionFormat per parameter
	// name; a name absent here uses CollectionFormat.
	QueryFormats map[string]CollectionFormat

	BodyTemplate string
	BodyIndex    int
	BodyType     reflect.Type

	// URIIndex, if set, names a string-typed argument (tagged
	// feign-uri on the field) whose value replaces the operation's
	// target prefix for this call — spec.md §4.5 step 2.
	URIIndex int

	// OptionsIndex, if set, names the feign.Options-typed argument that
	// overrides the operation's default per-call options (spec.md
	// §4.4/§4.7).
	OptionsIndex int

	QueryMapIndex   int
	QueryMapEncoded bool

	HeaderMapIndex int

	// IndexToName maps an argument index to the template variable names
	// it supplies; one argument may feed multiple {var}s.
	IndexToName map[int][]string

	IndexToExpander map[int]Expander

	// FormParams lists the names of arguments participating in form
	// encoding (mutually exclusive with BodyIndex != NoIndex).
	FormParams []string

	CollectionFormat CollectionFormat
	DecodeSlash      bool

	// Alone marks a default (non-HTTP) operation bound directly to a
	// user-supplied function value, routed around the pipeline (§4.6).
	Alone bool

	// FieldIndex is the struct field this operation was parsed from,
	// used by the Builder to wire a reflect.MakeFunc proxy back onto the
	// corresponding field.
	FieldIndex int
}

// NewMethodMetadata returns a MethodMetadata with all index fields set
// to NoIndex and its maps initialized.
func NewMethodMetadata(configKey string) *MethodMetadata {
	return &MethodMetadata{
		ConfigKey:        configKey,
		HeaderTemplates:  map[string][]string{},
		QueryTemplates:   map[string][]string{},
		QueryFormats:     map[string]CollectionFormat{},
		BodyIndex:        NoIndex,
		URIIndex:         NoIndex,
		OptionsIndex:     NoIndex,
		QueryMapIndex:    NoIndex,
		HeaderMapIndex:   NoIndex,
		IndexToName:      map[int][]string{},
		IndexToExpander:  map[int]Expander{},
		CollectionFormat: Exploded,
		DecodeSlash:      true,
	}
}

// Validate checks the invariants of spec.md §3 that are cheap to verify
// without access to the URI template parser (full {var}-coverage checking
// lives in the contract parser, which has the parsed template at hand).
func (m *MethodMetadata) Validate() error {
	if m.Method == "" {
		return &ConfigError{Message: "method " + m.ConfigKey + ": missing HTTP method"}
	}
	if m.BodyIndex != NoIndex && len(m.FormParams) > 0 {
		return &ContractError{Message: "method " + m.ConfigKey + ": body parameters cannot be used with form parameters"}
	}
	return nil
}

// ContractError is raised at parse time for a malformed operation
// declaration (spec.md §7).
type ContractError struct {
	Message string
}

func (e *ContractError) Error() string { return "feign: contract error: " + e.Message }

// ConfigError covers absolute/relative URI violations, missing HTTP
// method, and duplicate QueryMap/HeaderMap arguments (spec.md §7).
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return "feign: configuration error: " + e.Message }

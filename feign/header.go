package feign

import (
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/gofeign/gofeign/feign/uritemplate"
)

// HeaderTemplate is a header name bound to one or more value templates,
// all rendered and joined with ", " (the standard multi-value header
// join) when the name resolves to multiple values.
type HeaderTemplate struct {
	Name   string
	Values []*uritemplate.Template
}

// NewHeaderTemplate parses a header's value template strings.
func NewHeaderTemplate(name string, values []string) (*HeaderTemplate, error) {
	ht := &HeaderTemplate{Name: name}
	for _, v := range values {
		vt, err := uritemplate.Parse(v)
		if err != nil {
			return nil, err
		}
		ht.Values = append(ht.Values, vt)
	}
	return ht, nil
}

// Expand resolves every value template against vars, dropping any that
// are Undef under the Required policy, then validates each surviving
// value via httpguts.ValidHeaderFieldValue (SPEC_FULL.md §4.3). Returns
// ok=false if no value template resolved (header omitted entirely).
func (h *HeaderTemplate) Expand(vars map[string]interface{}, charset string) (values []string, ok bool, err error) {
	for _, v := range h.Values {
		elements, present, err := v.ExpandRawElements(vars, charset)
		if err != nil {
			return nil, false, err
		}
		if !present {
			continue
		}
		for _, s := range elements {
			if !httpguts.ValidHeaderFieldValue(s) {
				return nil, false, ErrInvalidHeaderValue
			}
			values = append(values, s)
		}
	}
	return values, len(values) > 0, nil
}

// orderedHeaderMap stores headers case-insensitively (canonical MIME
// header form) while preserving first-insertion order for deterministic
// wire output and logging, mirroring EdgeComet's ordered hostsCache
// pattern generalized from hosts to header names.
type orderedHeaderMap struct {
	order  []string          // canonical keys, insertion order
	values map[string][]string // canonical key -> values
}

func newOrderedHeaderMap() *orderedHeaderMap {
	return &orderedHeaderMap{values: map[string][]string{}}
}

func canonicalHeader(name string) string {
	return http.CanonicalHeaderKey(name)
}

// Set replaces all values for name (case-insensitive).
func (m *orderedHeaderMap) Set(name string, values ...string) {
	key := canonicalHeader(name)
	if _, exists := m.values[key]; !exists {
		m.order = append(m.order, key)
	}
	m.values[key] = values
}

// Add appends values to any already stored under name.
func (m *orderedHeaderMap) Add(name string, values ...string) {
	key := canonicalHeader(name)
	if _, exists := m.values[key]; !exists {
		m.order = append(m.order, key)
	}
	m.values[key] = append(m.values[key], values...)
}

// Get returns the first value stored for name, case-insensitively.
func (m *orderedHeaderMap) Get(name string) string {
	vs := m.values[canonicalHeader(name)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Values returns all values stored for name, case-insensitively.
func (m *orderedHeaderMap) Values(name string) []string {
	return m.values[canonicalHeader(name)]
}

// Has reports whether name has any stored value, case-insensitively.
func (m *orderedHeaderMap) Has(name string) bool {
	_, ok := m.values[canonicalHeader(name)]
	return ok
}

// Delete removes name entirely, case-insensitively.
func (m *orderedHeaderMap) Delete(name string) {
	key := canonicalHeader(name)
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Names returns the stored header names in insertion order.
func (m *orderedHeaderMap) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Clone deep-copies the map for per-invocation RequestTemplate cloning.
func (m *orderedHeaderMap) Clone() *orderedHeaderMap {
	c := newOrderedHeaderMap()
	c.order = append([]string(nil), m.order...)
	for k, v := range m.values {
		c.values[k] = append([]string(nil), v...)
	}
	return c
}

// toHTTPHeader renders the map into a net/http.Header, preserving order
// only insofar as http.Header (a map) allows — order is kept for logging
// via Names(), not for the wire format, which is the transport's concern.
func (m *orderedHeaderMap) toHTTPHeader() http.Header {
	h := make(http.Header, len(m.values))
	for k, v := range m.values {
		h[k] = append([]string(nil), v...)
	}
	return h
}

// joinedValue renders a header's stored values as a single comma-joined
// string, the conventional multi-value header representation.
func (m *orderedHeaderMap) joinedValue(name string) string {
	return strings.Join(m.Values(name), ", ")
}

package feign

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofeign/gofeign/feign/metadata"
	"github.com/gofeign/gofeign/feign/uritemplate"
)

// ErrUnresolvedURIVariable is returned by Resolve when a path segment
// variable has no binding — unlike a query parameter, a missing path
// variable cannot simply be dropped, since it would leave the URL
// malformed.
var ErrUnresolvedURIVariable = errors.New("feign: unresolved uri template variable")

// RequestTemplate is the mutable-until-Resolve, then-frozen model of one
// HTTP request: a target, a URI path template, an ordered set of query
// and header templates, and an optional body. Resolve consumes an
// argument-derived variable map and produces a concrete *http.Request.
//
// Mutators on a resolved template return ErrTemplateResolved; callers
// that need a fresh mutable copy for the next retry attempt or the next
// invocation should call Clone first.
type RequestTemplate struct {
	target      string
	uriTemplate *uritemplate.Template
	queries     []*QueryTemplate
	headers     []*HeaderTemplate

	body         []byte
	bodyTemplate *uritemplate.Template

	charset          string
	method           string
	decodeSlash      bool
	collectionFormat metadata.CollectionFormat

	resolved bool

	resolvedURL     string
	resolvedHeaders *orderedHeaderMap
	resolvedBody    []byte
}

// NewRequestTemplate constructs an unresolved template for one operation.
// uri is the path template (relative, e.g. "/repos/{owner}/{repo}") —
// the target is supplied separately so the same template shape can be
// reused across a load-balanced set of targets (SPEC_FULL.md §4.8).
func NewRequestTemplate(method, uri string, decodeSlash bool, format metadata.CollectionFormat) (*RequestTemplate, error) {
	ut, err := uritemplate.Parse(uri)
	if err != nil {
		return nil, err
	}
	return &RequestTemplate{
		method:           method,
		uriTemplate:      ut,
		charset:          "UTF-8",
		decodeSlash:      decodeSlash,
		collectionFormat: format,
	}, nil
}

func (t *RequestTemplate) checkMutable() error {
	if t.resolved {
		return ErrTemplateResolved
	}
	return nil
}

// Target sets the scheme+host (and optional base path) prefix the
// resolved uri template is appended to.
func (t *RequestTemplate) Target(target string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.target = target
	return nil
}

// Method overrides the HTTP method (rarely needed post-construction, but
// interceptors are allowed to rewrite it, e.g. a retry-as-GET policy).
func (t *RequestTemplate) Method(method string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.method = method
	return nil
}

func (t *RequestTemplate) GetMethod() string { return t.method }
func (t *RequestTemplate) GetTarget() string { return t.target }

// AddQuery appends a query parameter template.
func (t *RequestTemplate) AddQuery(name string, values []string, format metadata.CollectionFormat) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	qt, err := NewQueryTemplate(name, values, format)
	if err != nil {
		return err
	}
	t.queries = append(t.queries, qt)
	return nil
}

// AddHeader appends a header value template. Per SPEC_FULL.md §9, a
// later AddHeader call for the same name (case-insensitive) is expected
// to be resolved by the caller (contract parser) as a class-vs-method
// override BEFORE reaching the template — this method always appends a
// new template. At Resolve, a later template for the same name
// (case-insensitive) replaces the values of an earlier one.
func (t *RequestTemplate) AddHeader(name string, values []string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	ht, err := NewHeaderTemplate(name, values)
	if err != nil {
		return err
	}
	t.headers = append(t.headers, ht)
	return nil
}

// Headers returns the header templates declared so far, for an
// interceptor (e.g. RequestIDInterceptor) to inspect before the template
// is resolved. Class- and method-level headers are already merged by the
// contract parser before they reach the template.
func (t *RequestTemplate) Headers() []*HeaderTemplate {
	return t.headers
}

// SetHeaders replaces the whole header template list.
func (t *RequestTemplate) SetHeaders(headers []*HeaderTemplate) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.headers = headers
	return nil
}

// SetBody sets a pre-encoded body (the BodyEncoded builder variant of
// SPEC_FULL.md §4.5 — the body bytes already came from an external
// codec, no further templating happens on them).
func (t *RequestTemplate) SetBody(body []byte, contentType string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.body = body
	if contentType != "" {
		return t.AddHeader("Content-Type", []string{contentType})
	}
	return nil
}

// SetBodyTemplate sets a templated body string (the FormEncoded variant,
// e.g. "field1={v1}&field2={v2}"), resolved at Resolve time like the URI
// template, using the Query fragment's encoding table.
func (t *RequestTemplate) SetBodyTemplate(body string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	bt, err := uritemplate.Parse(body)
	if err != nil {
		return err
	}
	t.bodyTemplate = bt
	return nil
}

// Clone returns a fresh, still-unresolved copy sharing no mutable state
// with t. The handler does not use it: every attempt gets its own
// RequestTemplate from TemplateBuilder.Build.
func (t *RequestTemplate) Clone() *RequestTemplate {
	c := &RequestTemplate{
		target:           t.target,
		uriTemplate:      t.uriTemplate,
		charset:          t.charset,
		method:           t.method,
		decodeSlash:      t.decodeSlash,
		collectionFormat: t.collectionFormat,
		bodyTemplate:     t.bodyTemplate,
	}
	c.queries = append(c.queries, t.queries...)
	c.headers = append(c.headers, t.headers...)
	if t.body != nil {
		c.body = append([]byte(nil), t.body...)
	}
	return c
}

// Resolve expands every template against vars and freezes the receiver.
// Subsequent mutator calls return ErrTemplateResolved. Safe to call only
// once per instance — callers needing another attempt must Clone first.
func (t *RequestTemplate) Resolve(vars map[string]interface{}) error {
	if t.resolved {
		return ErrTemplateResolved
	}

	path, err := t.uriTemplate.Expand(vars, uritemplate.PathSegment, uritemplate.AllowUnresolved, t.charset)
	if err != nil {
		return err
	}
	if strings.Contains(path, "{") {
		return ErrUnresolvedURIVariable
	}

	var url strings.Builder
	url.WriteString(t.target)
	url.WriteString(path)

	var qparts []string
	for _, q := range t.queries {
		name, values, ok, err := q.Expand(vars, t.charset)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if len(values) == 0 {
			qparts = append(qparts, name)
			continue
		}
		for _, v := range values {
			qparts = append(qparts, name+"="+v)
		}
	}
	if len(qparts) > 0 {
		url.WriteString("?")
		url.WriteString(strings.Join(qparts, "&"))
	}

	headers := newOrderedHeaderMap()
	for _, h := range t.headers {
		values, ok, err := h.Expand(vars, t.charset)
		if err != nil {
			return err
		}
		if ok {
			headers.Set(h.Name, values...)
		}
	}

	body := t.body
	if t.bodyTemplate != nil {
		rendered, err := t.bodyTemplate.Expand(vars, uritemplate.Query, uritemplate.AllowUnresolved, t.charset)
		if err != nil {
			return err
		}
		body = []byte(rendered)
	}

	t.resolvedURL = url.String()
	t.resolvedHeaders = headers
	t.resolvedBody = body
	t.resolved = true
	return nil
}

// URL returns the resolved URL. Panics on an unresolved template — callers
// only reach here after a successful Resolve.
func (t *RequestTemplate) URL() string {
	if !t.resolved {
		panic("feign: RequestTemplate.URL called before Resolve")
	}
	return t.resolvedURL
}

// ResolvedHeaders returns the resolved header set.
func (t *RequestTemplate) ResolvedHeaders() *orderedHeaderMap {
	if !t.resolved {
		panic("feign: RequestTemplate.ResolvedHeaders called before Resolve")
	}
	return t.resolvedHeaders
}

// Body returns the resolved body bytes, or nil if none.
func (t *RequestTemplate) Body() []byte {
	return t.resolvedBody
}

// NewHTTPRequest builds a *http.Request from the resolved template. It
// attaches no context; the Transport binds the call's ctx when it sends
// the request (SPEC_FULL.md §5's "blocking at Transport.Do(ctx, req)").
func (t *RequestTemplate) NewHTTPRequest() (*http.Request, error) {
	if !t.resolved {
		panic("feign: NewHTTPRequest called before Resolve")
	}
	var bodyReader *strings.Reader
	if len(t.resolvedBody) > 0 {
		bodyReader = strings.NewReader(string(t.resolvedBody))
	} else {
		bodyReader = strings.NewReader("")
	}
	req, err := http.NewRequest(t.method, t.resolvedURL, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header = t.resolvedHeaders.toHTTPHeader()
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}
	if len(t.resolvedBody) > 0 {
		req.ContentLength = int64(len(t.resolvedBody))
	}
	return req, nil
}

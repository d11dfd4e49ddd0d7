package feign

// Interceptor mutates a RequestTemplate before it is resolved and sent.
// Interceptors run, in registration order, on EVERY attempt including
// retries (SPEC_FULL.md §5) and therefore must be idempotent: applying
// the same interceptor twice to the same logical request must not
// duplicate a header or otherwise change behavior. Built-in interceptors
// guard against this with a marker-header check (see
// RequestIDInterceptor below).
type Interceptor interface {
	Apply(t *RequestTemplate) error
}

// InterceptorFunc adapts a plain function to the Interceptor interface.
type InterceptorFunc func(t *RequestTemplate) error

func (f InterceptorFunc) Apply(t *RequestTemplate) error { return f(t) }

// InterceptorChain runs a fixed, ordered list of interceptors.
type InterceptorChain struct {
	interceptors []Interceptor
}

// NewInterceptorChain builds a chain from interceptors in application
// order.
func NewInterceptorChain(interceptors ...Interceptor) *InterceptorChain {
	return &InterceptorChain{interceptors: interceptors}
}

// Apply runs every interceptor in order, stopping at the first error.
func (c *InterceptorChain) Apply(t *RequestTemplate) error {
	for _, ic := range c.interceptors {
		if err := ic.Apply(t); err != nil {
			return err
		}
	}
	return nil
}

// requestIDHeader is the header RequestIDInterceptor injects when the
// operation didn't already declare one, grounded on EdgeComet's rsclient
// X-Request-ID convention.
const requestIDHeader = "X-Request-Id"

// RequestIDInterceptor attaches a feignid-generated correlation ID as an
// X-Request-Id header when the template doesn't already carry one — the
// marker check (a case-insensitive scan of Headers() for that name) keeps
// a second pass over the same template from adding a second ID. The
// handler builds a fresh template for every attempt, so each retry gets
// a newly generated ID.
type RequestIDInterceptor struct {
	Generate func() string
}

// NewRequestIDInterceptor builds a RequestIDInterceptor using gen to mint
// IDs (typically feignid.New("")).
func NewRequestIDInterceptor(gen func() string) *RequestIDInterceptor {
	return &RequestIDInterceptor{Generate: gen}
}

func (r *RequestIDInterceptor) Apply(t *RequestTemplate) error {
	for _, h := range t.Headers() {
		if canonicalHeader(h.Name) == requestIDHeader {
			return nil
		}
	}
	return t.AddHeader(requestIDHeader, []string{r.Generate()})
}

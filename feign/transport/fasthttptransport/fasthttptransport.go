// Package fasthttptransport adapts github.com/valyala/fasthttp's client
// into a feign.Transport, grounded on the teacher's fasthttp conventions
// (internal/edge/server's header iteration over fasthttp.RequestHeader,
// adapted here from the server side to the client side since the teacher
// only ever uses fasthttp as a server).
package fasthttptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/gofeign/gofeign/feign"
)

// Transport implements feign.Transport over a fasthttp.Client, the
// zero-allocation-focused alternative to the stdlib default (NewStdTransport),
// wired per SPEC_FULL.md's domain-stack transport seam.
type Transport struct {
	client *fasthttp.Client
}

// Option configures a Transport at construction.
type Option func(*fasthttp.Client)

// WithReadTimeout sets the client-wide read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *fasthttp.Client) { c.ReadTimeout = d }
}

// WithWriteTimeout sets the client-wide write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *fasthttp.Client) { c.WriteTimeout = d }
}

// WithMaxConnsPerHost sets the per-host connection pool limit.
func WithMaxConnsPerHost(n int) Option {
	return func(c *fasthttp.Client) { c.MaxConnsPerHost = n }
}

// New builds a Transport backed by a dedicated fasthttp.Client.
func New(opts ...Option) *Transport {
	client := &fasthttp.Client{
		MaxConnsPerHost: fasthttp.DefaultMaxConnsPerHost,
	}
	for _, opt := range opts {
		opt(client)
	}
	return &Transport{client: client}
}

var _ feign.Transport = (*Transport)(nil)

// Do converts req into a fasthttp.Request, executes it respecting ctx's
// deadline/cancellation, and converts the fasthttp.Response back into an
// *http.Response so the rest of the pipeline (handler.go's status/body
// handling) stays transport-agnostic.
func (t *Transport) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(freq)

	freq.SetRequestURI(req.URL.String())
	freq.Header.SetMethod(req.Method)
	for name, values := range req.Header {
		for _, v := range values {
			freq.Header.Add(name, v)
		}
	}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			fasthttp.ReleaseResponse(fresp)
			return nil, fmt.Errorf("fasthttptransport: reading request body: %w", err)
		}
		freq.SetBody(body)
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = t.client.DoDeadline(freq, fresp, deadline)
	} else {
		done := make(chan error, 1)
		go func() { done <- t.client.Do(freq, fresp) }()
		select {
		case err = <-done:
		case <-ctx.Done():
			fasthttp.ReleaseResponse(fresp)
			return nil, ctx.Err()
		}
	}
	if err != nil {
		fasthttp.ReleaseResponse(fresp)
		return nil, fmt.Errorf("fasthttptransport: %w", err)
	}

	resp, convErr := toHTTPResponse(req, fresp)
	fasthttp.ReleaseResponse(fresp)
	if convErr != nil {
		return nil, convErr
	}
	return resp, nil
}

// toHTTPResponse copies the fasthttp.Response into a standalone
// *http.Response (body and headers copied, not referencing fasthttp's
// pooled buffers, since fresp is released immediately after this call).
func toHTTPResponse(req *http.Request, fresp *fasthttp.Response) (*http.Response, error) {
	body := append([]byte(nil), fresp.Body()...)

	header := make(http.Header)
	fresp.Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})

	resp := &http.Response{
		Status:        http.StatusText(fresp.StatusCode()),
		StatusCode:    fresp.StatusCode(),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
	return resp, nil
}

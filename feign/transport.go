package feign

import (
	"context"
	"net"
	"net/http"
)

// Transport sends a fully-resolved HTTP request and returns the response.
// Implementations must respect ctx cancellation (SPEC_FULL.md §5's
// "blocking points: Transport.Do(ctx, req)"). The stdlib implementation
// below is the default; feign/transport/fasthttptransport provides an
// alternative.
type Transport interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// stdTransport is the default Transport, backed by net/http.Client.
// Standard library is the deliberate choice for the DEFAULT transport:
// SPEC_FULL.md §1 places "concrete transport socket handling beyond what
// net/http/fasthttp already provide" out of scope, and every client needs
// a zero-configuration default before opting into fasthttp.
type stdTransport struct {
	client *http.Client
}

// NewStdTransport builds the default Transport from an *http.Client. If
// client is nil, http.DefaultClient's zero-value equivalent is used.
func NewStdTransport(client *http.Client) Transport {
	if client == nil {
		client = &http.Client{}
	}
	return &stdTransport{client: client}
}

func (s *stdTransport) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return s.client.Do(req.WithContext(ctx))
}

// NewDefaultTransport builds the same Options-aware stdlib Transport
// Builder.Build constructs when no .Transport(...) is configured,
// exported so a caller composing it with another Transport wrapper (e.g.
// feign/breaker.Wrap) can start from the same defaults instead of
// hand-rolling an *http.Client.
func NewDefaultTransport(o Options) Transport {
	return NewStdTransport(newDefaultHTTPClient(o))
}

// newDefaultHTTPClient builds the *http.Client backing the default
// stdTransport from o: ConnectTimeout drives the dialer's connect
// deadline, ReadTimeout becomes the client's overall per-request
// deadline, and FollowRedirects false stops the client at the first
// redirect via CheckRedirect, per SPEC_FULL.md §6's Options surface.
func newDefaultHTTPClient(o Options) *http.Client {
	dialer := &net.Dialer{Timeout: o.ConnectTimeout}
	client := &http.Client{
		Transport: &http.Transport{DialContext: dialer.DialContext},
		Timeout:   o.ReadTimeout,
	}
	if !o.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

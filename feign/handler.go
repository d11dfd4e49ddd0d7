package feign

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/gofeign/gofeign/feign/codec"
	"github.com/gofeign/gofeign/feign/metadata"
	"github.com/gofeign/gofeign/feign/retry"
	"github.com/gofeign/gofeign/feignid"
)

// SynchronousMethodHandler runs the pipeline of SPEC_FULL.md §4.7 for one
// operation: build the template, resolve it, send it, classify the
// response, retry on a retryable outcome, and decode the result.
type SynchronousMethodHandler struct {
	Metadata    *metadata.MethodMetadata
	Target      Target
	Builder     *TemplateBuilder
	Chain       *InterceptorChain
	Transport   Transport
	Decoder     codec.Decoder
	ErrorDecoder func(statusCode int, body []byte) error

	RetryerFactory func() retry.Retryer
	Logger         Logger
	LogLevel       LogLevel
	Metrics        Metrics
	Options        Options
	Propagation    ExceptionPropagationPolicy
	CorrelationID  func() string
}

// NewSynchronousMethodHandler wires the collaborators for one operation.
func NewSynchronousMethodHandler(
	md *metadata.MethodMetadata,
	target Target,
	builder *TemplateBuilder,
	chain *InterceptorChain,
	transport Transport,
	decoder codec.Decoder,
	retryerFactory func() retry.Retryer,
	logger Logger,
	logLevel LogLevel,
	metrics Metrics,
	options Options,
	propagation ExceptionPropagationPolicy,
) *SynchronousMethodHandler {
	if logger == nil {
		logger = NopLogger{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if decoder == nil {
		decoder = codec.JSONCodec{}
	}
	return &SynchronousMethodHandler{
		Metadata:       md,
		Target:         target,
		Builder:        builder,
		Chain:          chain,
		Transport:      transport,
		Decoder:        decoder,
		RetryerFactory: retryerFactory,
		Logger:         logger,
		LogLevel:       logLevel,
		Metrics:        metrics,
		Options:        options,
		Propagation:    propagation,
		CorrelationID:  func() string { return feignid.New(md.ConfigKey) },
	}
}

// Invoke runs the full pipeline and returns a value assignable to
// md.ReturnType, or an error. Raw-response operations (ReturnType ==
// *http.Response) receive the response with its body never buffered.
func (h *SynchronousMethodHandler) Invoke(ctx context.Context, args []interface{}) (interface{}, error) {
	start := time.Now()
	correlationID := h.CorrelationID()
	var retryer retry.Retryer
	if h.RetryerFactory != nil {
		retryer = h.RetryerFactory()
	} else {
		retryer = retry.Never
	}

	attemptNum := 0
	for {
		attemptNum++
		result, err := h.attempt(ctx, args, correlationID, attemptNum)
		if err == nil {
			h.Metrics.ObserveInvocation(h.Metadata.ConfigKey, "success", time.Since(start))
			return result, nil
		}

		var retryable *RetryableError
		if errors.As(err, &retryable) {
			h.Metrics.ObserveRetry(h.Metadata.ConfigKey)
			if contErr := retryer.Continue(ctx, err); contErr != nil {
				h.Metrics.ObserveInvocation(h.Metadata.ConfigKey, "exhausted", time.Since(start))
				return nil, h.propagate(contErr)
			}
			continue
		}

		h.Metrics.ObserveInvocation(h.Metadata.ConfigKey, "error", time.Since(start))
		return nil, h.propagate(err)
	}
}

func (h *SynchronousMethodHandler) propagate(err error) error {
	if h.Propagation == Unwrap {
		if unwrapped := errors.Unwrap(err); unwrapped != nil {
			return unwrapped
		}
	}
	return err
}

// attempt builds, resolves, sends, and classifies exactly one HTTP
// request — the unit the retry loop repeats.
func (h *SynchronousMethodHandler) attempt(ctx context.Context, args []interface{}, correlationID string, attemptNum int) (interface{}, error) {
	rt, vars, err := h.Builder.Build(args)
	if err != nil {
		return nil, err
	}
	if err := h.Target.Apply(rt); err != nil {
		return nil, err
	}
	if err := h.Chain.Apply(rt); err != nil {
		return nil, err
	}
	if err := rt.Resolve(vars); err != nil {
		return nil, err
	}

	httpReq, err := rt.NewHTTPRequest()
	if err != nil {
		return nil, err
	}

	effOpts := h.effectiveOptions(args)
	if effOpts.ReadTimeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, effOpts.ReadTimeout)
			defer cancel()
		}
	}

	reqStart := time.Now()
	resp, err := h.Transport.Do(ctx, httpReq)
	duration := time.Since(reqStart)
	if err != nil {
		h.Metrics.ObserveAttempt(h.Metadata.ConfigKey, 0, err)
		h.logAttempt(rt, correlationID, attemptNum, 0, nil, nil, duration, err)
		return nil, NewRetryableError(err)
	}
	// A raw-response return type transfers resp.Body ownership to the
	// caller (SPEC_FULL.md §5) — only close it here ourselves for every
	// other return shape, once decoding is done.
	if h.Metadata.ReturnType != nil && h.Metadata.ReturnType.Kind() == reflect.Ptr && h.Metadata.ReturnType.Elem() == reflect.TypeOf(http.Response{}) {
		h.Metrics.ObserveAttempt(h.Metadata.ConfigKey, resp.StatusCode, nil)
		h.logAttempt(rt, correlationID, attemptNum, resp.StatusCode, resp.Header, nil, duration, nil)
		return resp, nil
	}
	defer func() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	return h.handleResponse(rt, resp, correlationID, attemptNum, duration, effOpts)
}

// effectiveOptions returns the per-call Options argument if the operation
// declared one (metadata.OptionsIndex) and the caller supplied it,
// otherwise the Builder-level default (spec.md §4.7 step 1: "a dedicated
// options argument in argv overrides the operation's default timeouts
// and redirect policy"). ConnectTimeout and FollowRedirects only take
// effect through the Builder-level default, since honoring a per-call
// override would require rebuilding the shared, frozen Transport
// (SPEC_FULL.md §5) on every attempt; ReadTimeout and Decode404 apply
// per call via the attempt's context deadline and response handling.
func (h *SynchronousMethodHandler) effectiveOptions(args []interface{}) Options {
	md := h.Metadata
	if md.OptionsIndex != metadata.NoIndex && md.OptionsIndex < len(args) {
		if o, ok := args[md.OptionsIndex].(Options); ok {
			return o
		}
	}
	return h.Options
}

func (h *SynchronousMethodHandler) handleResponse(rt *RequestTemplate, resp *http.Response, correlationID string, attemptNum int, duration time.Duration, opts Options) (interface{}, error) {
	md := h.Metadata

	body, err := readAll(resp.Body)
	if err != nil {
		return nil, err
	}

	h.Metrics.ObserveAttempt(md.ConfigKey, resp.StatusCode, nil)
	h.logAttempt(rt, correlationID, attemptNum, resp.StatusCode, resp.Header, body, duration, nil)

	if resp.StatusCode == http.StatusNotFound && opts.Decode404 {
		return zeroValueFor(md.ReturnType), nil
	}

	if isRetryableStatus(resp.StatusCode) {
		cause := &HTTPError{Method: rt.GetMethod(), URL: rt.URL(), StatusCode: resp.StatusCode, Body: body}
		if at, ok := retryAfterDeadline(resp.Header); ok {
			return nil, NewRetryableErrorAfter(cause, at)
		}
		return nil, NewRetryableError(cause)
	}

	if resp.StatusCode >= 300 {
		if h.ErrorDecoder != nil {
			return nil, h.ErrorDecoder(resp.StatusCode, body)
		}
		return nil, &HTTPError{Method: rt.GetMethod(), URL: rt.URL(), StatusCode: resp.StatusCode, Body: body}
	}

	if md.ReturnType == nil {
		return nil, nil
	}

	out := reflect.New(derefType(md.ReturnType))
	if err := h.Decoder.Decode(body, out.Interface()); err != nil {
		return nil, &DecodeError{StatusCode: resp.StatusCode, Body: body, Cause: err}
	}
	if md.ReturnType.Kind() == reflect.Ptr {
		return out.Interface(), nil
	}
	return out.Elem().Interface(), nil
}

func (h *SynchronousMethodHandler) logAttempt(rt *RequestTemplate, correlationID string, attemptNum, status int, respHeaders http.Header, body []byte, d time.Duration, err error) {
	a := Attempt{
		ConfigKey:     h.Metadata.ConfigKey,
		CorrelationID: correlationID,
		Method:        rt.GetMethod(),
		URL:           rt.URL(),
		StatusCode:    status,
		ResponseBody:  body,
		Duration:      d,
		AttemptNumber: attemptNum,
		Err:           err,
	}
	if h.LogLevel >= LogHeaders {
		a.RequestHeaders = map[string][]string(rt.ResolvedHeaders().toHTTPHeader())
		if respHeaders != nil {
			a.ResponseHeaders = map[string][]string(respHeaders)
		}
	}
	if h.LogLevel < LogFull {
		a.ResponseBody = nil
	} else if len(a.ResponseBody) > MaxBufferedBody {
		a.ResponseBody = a.ResponseBody[:MaxBufferedBody]
	}
	if h.LogLevel == LogNone {
		return
	}
	h.Logger.LogAttempt(h.LogLevel, a)
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

func zeroValueFor(t reflect.Type) interface{} {
	if t == nil {
		return nil
	}
	return reflect.Zero(t).Interface()
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func retryAfterDeadline(h http.Header) (time.Time, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Now().Add(time.Duration(secs) * time.Second), true
	}
	if t, err := http.ParseTime(v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// readAll reads the full response body for decoding. MaxBufferedBody
// governs only what a LogFull attempt log previews, and is the threshold
// past which callers should prefer a raw *http.Response return type to
// stream large payloads instead of decoding them wholesale.
func readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

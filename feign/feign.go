package feign

import (
	"reflect"

	"github.com/gofeign/gofeign/feign/codec"
	"github.com/gofeign/gofeign/feign/contract"
	"github.com/gofeign/gofeign/feign/metadata"
	"github.com/gofeign/gofeign/feign/retry"
)

// Contract produces the passive per-operation metadata the Builder turns
// into wired handlers. feign/contract.StructTag is the default
// implementation; it satisfies this interface structurally, so the root
// package never needs to import it except for that one default.
type Contract interface {
	Parse(target interface{}) ([]*metadata.MethodMetadata, error)
}

// Builder assembles a declarative HTTP client: a Contract parses a
// struct's function-typed fields into MethodMetadata, and Build wires
// each one into a SynchronousMethodHandler bound back onto the field via
// reflect.MakeFunc.
type Builder struct {
	contract       Contract
	options        Options
	logLevel       LogLevel
	logger         Logger
	metrics        Metrics
	transport      Transport
	encoder        codec.Encoder
	decoder        codec.Decoder
	errorDecoder   func(statusCode int, body []byte) error
	retryerFactory func() retry.Retryer
	propagation    ExceptionPropagationPolicy
	interceptors   []Interceptor
	closeAfterDecode bool
}

// NewBuilder returns a Builder configured with the package defaults: the
// struct-tag Contract, the stdlib Transport, JSON codec, no-op
// logger/metrics, DefaultOptions, never-retry, and Original error
// propagation.
func NewBuilder() *Builder {
	return &Builder{
		contract:    contract.New(),
		options:     DefaultOptions(),
		logLevel:    LogNone,
		logger:      NopLogger{},
		metrics:     NopMetrics{},
		encoder:     codec.JSONCodec{},
		decoder:     codec.JSONCodec{},
		propagation: Original,
		retryerFactory: func() retry.Retryer {
			return retry.Never
		},
	}
}

func (b *Builder) ContractImpl(c Contract) *Builder { b.contract = c; return b }
func (b *Builder) Options(o Options) *Builder        { b.options = o; return b }
func (b *Builder) LogLevel(l LogLevel) *Builder      { b.logLevel = l; return b }
func (b *Builder) Logger(l Logger) *Builder          { b.logger = l; return b }
func (b *Builder) Metrics(m Metrics) *Builder        { b.metrics = m; return b }
func (b *Builder) Transport(t Transport) *Builder    { b.transport = t; return b }
func (b *Builder) Encoder(e codec.Encoder) *Builder  { b.encoder = e; return b }
func (b *Builder) Decoder(d codec.Decoder) *Builder  { b.decoder = d; return b }
func (b *Builder) ErrorDecoder(f func(statusCode int, body []byte) error) *Builder {
	b.errorDecoder = f
	return b
}
func (b *Builder) Retryer(f func() retry.Retryer) *Builder { b.retryerFactory = f; return b }
func (b *Builder) ExceptionPropagationPolicy(p ExceptionPropagationPolicy) *Builder {
	b.propagation = p
	return b
}
func (b *Builder) Decode404(v bool) *Builder        { b.options.Decode404 = v; return b }
func (b *Builder) CloseAfterDecode(v bool) *Builder { b.closeAfterDecode = v; return b }
func (b *Builder) AddInterceptor(i ...Interceptor) *Builder {
	b.interceptors = append(b.interceptors, i...)
	return b
}

// Build parses target's struct tags via the configured Contract and
// wires every declared HTTP operation into a reflect.MakeFunc closure
// assigned back onto target's corresponding field. Default/Alone
// operations (SPEC_FULL.md §4.6) are left untouched — whatever function
// value the caller already assigned to that field before calling Build
// is dispatched directly, never through this pipeline.
func (b *Builder) Build(target interface{}, t Target) error {
	metas, err := b.contract.Parse(target)
	if err != nil {
		return err
	}

	// A caller-supplied Transport (b.Transport(...)) is used verbatim; the
	// zero-value default is built here, once every Option is known, so
	// ConnectTimeout/ReadTimeout/FollowRedirects actually reach the
	// stdlib client instead of being baked in before .Options(...) runs.
	transport := b.transport
	if transport == nil {
		transport = NewStdTransport(newDefaultHTTPClient(b.options))
	}

	chain := NewInterceptorChain(b.interceptors...)
	structVal := reflect.ValueOf(target).Elem()

	for _, md := range metas {
		field := structVal.Field(md.FieldIndex)
		if md.Alone {
			continue
		}

		builder := NewTemplateBuilder(md, b.encoder)
		handler := NewSynchronousMethodHandler(
			md, t, builder, chain, transport, b.decoder,
			b.retryerFactory, b.logger, b.logLevel, b.metrics, b.options, b.propagation,
		)
		handler.ErrorDecoder = b.errorDecoder

		proxy := bindProxy(field.Type(), handler)
		field.Set(proxy)
	}
	return nil
}

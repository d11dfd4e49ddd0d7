package feign

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/gofeign/gofeign/feign/codec"
	"github.com/gofeign/gofeign/feign/metadata"
)

// TemplateBuilder turns one invocation's argument vector into a fresh,
// unresolved RequestTemplate, per the three variants of SPEC_FULL.md
// §4.5: Plain (no body), FormEncoded (templated form body), and
// BodyEncoded (an external Encoder serializes one argument).
type TemplateBuilder struct {
	md      *metadata.MethodMetadata
	encoder codec.Encoder
}

// NewTemplateBuilder builds a TemplateBuilder for one operation's
// metadata, using encoder to serialize a body argument (ignored unless
// md.BodyIndex is set).
func NewTemplateBuilder(md *metadata.MethodMetadata, encoder codec.Encoder) *TemplateBuilder {
	if encoder == nil {
		encoder = codec.JSONCodec{}
	}
	return &TemplateBuilder{md: md, encoder: encoder}
}

// Build constructs a fresh RequestTemplate from args, positioned
// left-to-right exactly as the contract parser classified them, and
// returns the variable map the caller must pass to RequestTemplate.Resolve
// once retry/interceptor mutation of the template is done.
func (b *TemplateBuilder) Build(args []interface{}) (*RequestTemplate, map[string]interface{}, error) {
	md := b.md
	rt, err := NewRequestTemplate(md.Method, md.URITemplate, md.DecodeSlash, md.CollectionFormat)
	if err != nil {
		return nil, nil, err
	}

	if md.URIIndex != metadata.NoIndex && md.URIIndex < len(args) {
		uri, ok := args[md.URIIndex].(string)
		if !ok {
			return nil, nil, &metadata.ContractError{Message: fmt.Sprintf("method %s: uri argument at index %d must be a string", md.ConfigKey, md.URIIndex)}
		}
		if err := rt.Target(uri); err != nil {
			return nil, nil, err
		}
	}

	vars, err := b.argVars(args)
	if err != nil {
		return nil, nil, err
	}

	for _, name := range md.HeaderOrder {
		if err := rt.AddHeader(name, md.HeaderTemplates[name]); err != nil {
			return nil, nil, err
		}
	}
	for _, name := range md.QueryOrder {
		format := md.CollectionFormat
		if f, ok := md.QueryFormats[name]; ok {
			format = f
		}
		if err := rt.AddQuery(name, md.QueryTemplates[name], format); err != nil {
			return nil, nil, err
		}
	}

	if md.HeaderMapIndex != metadata.NoIndex && md.HeaderMapIndex < len(args) {
		if err := applyMapArg(args[md.HeaderMapIndex], func(k string, vs []string) error {
			return rt.AddHeader(k, vs)
		}); err != nil {
			return nil, nil, err
		}
	}
	if md.QueryMapIndex != metadata.NoIndex && md.QueryMapIndex < len(args) {
		encoded := md.QueryMapEncoded
		if err := applyMapArg(args[md.QueryMapIndex], func(k string, vs []string) error {
			if !encoded {
				for i, v := range vs {
					vs[i] = url.QueryEscape(v)
				}
			}
			return rt.AddQuery(k, vs, metadata.Exploded)
		}); err != nil {
			return nil, nil, err
		}
	}

	switch {
	case md.BodyIndex != metadata.NoIndex && md.BodyIndex < len(args):
		// BodyEncoded variant: an external Encoder serializes one
		// argument wholesale into the request body.
		encoded, err := b.encoder.Encode(args[md.BodyIndex])
		if err != nil {
			return nil, nil, fmt.Errorf("feign: encoding body argument: %w", err)
		}
		if err := rt.SetBody(encoded, b.encoder.ContentType()); err != nil {
			return nil, nil, err
		}
	case md.BodyTemplate != "":
		// FormEncoded variant: a templated body string, resolved the
		// same way the URI/query/header templates are.
		if err := rt.SetBodyTemplate(md.BodyTemplate); err != nil {
			return nil, nil, err
		}
		if err := rt.AddHeader("Content-Type", []string{"application/x-www-form-urlencoded"}); err != nil {
			return nil, nil, err
		}
	}

	return rt, vars, nil
}

// argVars resolves every IndexToName-bound argument into the variable
// map consumed by RequestTemplate.Resolve, applying a registered
// Expander where present instead of the default %v stringification.
func (b *TemplateBuilder) argVars(args []interface{}) (map[string]interface{}, error) {
	md := b.md
	vars := map[string]interface{}{}
	for idx, names := range md.IndexToName {
		if idx >= len(args) {
			return nil, &metadata.ContractError{Message: fmt.Sprintf("method %s: missing argument at index %d", md.ConfigKey, idx)}
		}
		val := args[idx]
		if expander, ok := md.IndexToExpander[idx]; ok {
			s, err := expander(val)
			if err != nil {
				return nil, fmt.Errorf("feign: expanding argument %d: %w", idx, err)
			}
			val = s
		}
		for _, name := range names {
			vars[name] = val
		}
	}
	return vars, nil
}

// applyMapArg normalizes a map[string]string or map[string][]string
// argument into repeated (key, values) callback invocations, per
// SPEC_FULL.md §4.4's query-map/header-map argument classification.
func applyMapArg(arg interface{}, fn func(key string, values []string) error) error {
	if arg == nil {
		return nil
	}
	rv := reflect.ValueOf(arg)
	if rv.Kind() != reflect.Map {
		return &metadata.ContractError{Message: "query/header map argument must be a map"}
	}
	iter := rv.MapRange()
	for iter.Next() {
		key := fmt.Sprintf("%v", iter.Key().Interface())
		var values []string
		val := iter.Value().Interface()
		switch v := val.(type) {
		case string:
			values = []string{v}
		case []string:
			values = append([]string(nil), v...)
		default:
			values = []string{fmt.Sprintf("%v", v)}
		}
		if err := fn(key, values); err != nil {
			return err
		}
	}
	return nil
}

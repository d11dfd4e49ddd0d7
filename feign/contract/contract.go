// Package contract implements the Go-native re-expression of the
// annotation dialect described in SPEC_FULL.md §4.4: struct tags on a
// struct whose function-typed fields form the client's interface.
//
//	type GitHubClient struct {
//	    GetContributors func(ctx context.Context, owner, repo string) ([]Contributor, error) `feign:"GET /repos/{owner}/{repo}/contributors"`
//	}
//
// Parse never imports the root feign package — it depends only on
// feign/metadata and feign/uritemplate, so the root package can depend on
// contract without an import cycle.
package contract

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/gofeign/gofeign/feign/metadata"
	"github.com/gofeign/gofeign/feign/uritemplate"
)

// StructTag is the default Contract: a struct-tag walker over a pointer
// to a struct whose function-typed fields declare operations.
type StructTag struct{}

// New constructs the default struct-tag Contract.
func New() *StructTag { return &StructTag{} }

var (
	ctxType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType     = reflect.TypeOf((*error)(nil)).Elem()
	optionsType = reflect.TypeOf(metadata.Options{})
)

// Parse walks target (a pointer to a struct) and returns one
// MethodMetadata per function-typed field, in struct field order. At most
// one embedded struct field ("super-interface") is allowed; its own
// function-typed fields are parsed recursively and merged in, with
// duplicate config keys across the embedding reported as a ContractError.
func (StructTag) Parse(target interface{}) ([]*metadata.MethodMetadata, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, &metadata.ContractError{Message: "contract: target must be a pointer to struct"}
	}
	seen := map[string]bool{}
	return parseStruct(v.Elem(), seen)
}

func parseStruct(structVal reflect.Value, seen map[string]bool) ([]*metadata.MethodMetadata, error) {
	structType := structVal.Type()
	classHeaders, classOrder := classHeadersFromStructTag(structType)

	var metas []*metadata.MethodMetadata
	embeddedSeen := false

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if embeddedSeen {
				return nil, &metadata.ContractError{Message: "contract: at most one embedded super-interface field is allowed"}
			}
			embeddedSeen = true
			sub, err := parseStruct(structVal.Field(i), seen)
			if err != nil {
				return nil, err
			}
			metas = append(metas, sub...)
			continue
		}

		if field.Type.Kind() != reflect.Func {
			continue
		}

		configKey := structType.Name() + "#" + field.Name
		if seen[configKey] {
			return nil, &metadata.ContractError{Message: "contract: duplicate config key " + configKey}
		}
		seen[configKey] = true

		tag, hasTag := field.Tag.Lookup("feign")
		if !hasTag {
			md := metadata.NewMethodMetadata(configKey)
			md.Alone = true
			md.FieldIndex = i
			metas = append(metas, md)
			continue
		}

		md, err := parseOperation(configKey, i, field, tag, classHeaders, classOrder)
		if err != nil {
			return nil, err
		}
		metas = append(metas, md)
	}
	return metas, nil
}

// classHeadersFromStructTag reads a struct-level "feign-class-headers" tag off
// a zero-width marker field (any field tagged at the struct-definition
// site is accepted; conventionally an embedded `_ struct{}` field), used
// as the class-level header set of SPEC_FULL.md §4.4 pass 1.
func classHeadersFromStructTag(structType reflect.Type) (map[string][]string, []string) {
	for i := 0; i < structType.NumField(); i++ {
		if tag, ok := structType.Field(i).Tag.Lookup("feign-class-headers"); ok {
			headers, order, err := parseHeaderTag(tag)
			if err == nil {
				return headers, order
			}
		}
	}
	return map[string][]string{}, nil
}

func parseOperation(configKey string, fieldIndex int, field reflect.StructField, tag string, classHeaders map[string][]string, classOrder []string) (*metadata.MethodMetadata, error) {
	md := metadata.NewMethodMetadata(configKey)
	md.FieldIndex = fieldIndex

	parts := strings.SplitN(strings.TrimSpace(tag), " ", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil, &metadata.ConfigError{Message: "method " + configKey + ": missing HTTP method"}
	}
	md.Method = strings.ToUpper(parts[0])
	uri := strings.TrimSpace(parts[1])

	path, rawQuery, hasQuery := strings.Cut(uri, "?")
	md.URITemplate = path

	pathTmpl, err := uritemplate.Parse(path)
	if err != nil {
		return nil, &metadata.ContractError{Message: "method " + configKey + ": " + err.Error()}
	}
	needed := append([]string(nil), pathTmpl.Names()...)

	if hasQuery {
		for _, pair := range strings.Split(rawQuery, "&") {
			if pair == "" {
				continue
			}
			name, valueTmpl, has := strings.Cut(pair, "=")
			if _, exists := md.QueryTemplates[name]; !exists {
				md.QueryOrder = append(md.QueryOrder, name)
			}
			if !has {
				md.QueryTemplates[name] = nil // pure/flag-style
				continue
			}
			vt, err := uritemplate.Parse(valueTmpl)
			if err != nil {
				return nil, &metadata.ContractError{Message: "method " + configKey + ": " + err.Error()}
			}
			md.QueryTemplates[name] = append(md.QueryTemplates[name], valueTmpl)
			needed = append(needed, vt.Names()...)
		}
	}

	headers, headerOrder, err := mergeHeaders(classHeaders, classOrder, field.Tag.Get("feign-headers"))
	if err != nil {
		return nil, &metadata.ContractError{Message: "method " + configKey + ": " + err.Error()}
	}
	md.HeaderTemplates = headers
	md.HeaderOrder = headerOrder
	for _, name := range headerOrder {
		for _, vs := range headers[name] {
			ht, err := uritemplate.Parse(vs)
			if err != nil {
				return nil, &metadata.ContractError{Message: "method " + configKey + ": " + err.Error()}
			}
			needed = append(needed, ht.Names()...)
		}
	}

	bodyTemplate := field.Tag.Get("feign-body")
	var bodyTemplateNames []string
	if bodyTemplate != "" {
		bt, err := uritemplate.Parse(bodyTemplate)
		if err != nil {
			return nil, &metadata.ContractError{Message: "method " + configKey + ": " + err.Error()}
		}
		md.BodyTemplate = bodyTemplate
		bodyTemplateNames = bt.Names()
		for _, n := range bodyTemplateNames {
			if !containsString(needed, n) {
				needed = append(needed, n)
				md.FormParams = append(md.FormParams, n)
			}
		}
	}

	if cf := field.Tag.Get("feign-collection"); cf != "" {
		for _, pair := range strings.Split(cf, ",") {
			name, format, ok := strings.Cut(pair, "=")
			if !ok {
				continue
			}
			md.QueryFormats[strings.TrimSpace(name)] = parseCollectionFormat(strings.TrimSpace(format))
		}
	}

	if err := classifyParams(md, field, needed); err != nil {
		return nil, err
	}

	if err := md.Validate(); err != nil {
		return nil, err
	}
	for _, n := range needed {
		if !coveredByIndex(md, n) {
			return nil, &metadata.ContractError{Message: "method " + configKey + ": template variable " + n + " has no bound argument"}
		}
	}
	return md, nil
}

// coveredByIndex reports whether name is bound to an argument, either
// directly (IndexToName) or via a map-typed argument that may supply
// arbitrary names at runtime and so is trusted without static checking.
func coveredByIndex(md *metadata.MethodMetadata, name string) bool {
	for _, names := range md.IndexToName {
		for _, n := range names {
			if n == name {
				return true
			}
		}
	}
	return md.QueryMapIndex != metadata.NoIndex || md.HeaderMapIndex != metadata.NoIndex
}

// classifyParams positionally matches the field's function parameters
// against the query-map/header-map/uri/options/needed-variable/body-
// argument categories of SPEC_FULL.md §4.4, in declaration order. A
// map-typed parameter is routed to QueryMapIndex or HeaderMapIndex
// according to which of feign-querymap/feign-headermap is present on the
// field; lacking either tag, a map-typed parameter is treated like any
// other value and matched against needed template variables instead. A
// feign.Options-typed parameter is always the options argument,
// recognized by exact type regardless of tags. A string-typed parameter
// is the URI argument, overriding the operation's target for this call,
// when the field carries a feign-uri tag.
func classifyParams(md *metadata.MethodMetadata, field reflect.StructField, needed []string) error {
	fnType := field.Type
	if fnType.Kind() != reflect.Func {
		return &metadata.ContractError{Message: "contract: field is not a function type"}
	}
	if fnType.NumOut() == 0 || fnType.Out(fnType.NumOut()-1) != errType {
		return &metadata.ConfigError{Message: "contract: operation must return an error as its last result"}
	}
	if fnType.NumOut() == 2 {
		md.ReturnType = fnType.Out(0)
	}

	_, hasQueryMapTag := field.Tag.Lookup("feign-querymap")
	_, hasHeaderMapTag := field.Tag.Lookup("feign-headermap")
	_, hasURITag := field.Tag.Lookup("feign-uri")
	md.QueryMapEncoded = hasQueryMapTag && strings.Contains(field.Tag.Get("feign-querymap"), "encoded")

	start := 0
	if fnType.NumIn() > 0 && fnType.In(0).Implements(ctxType) {
		start = 1
	}

	argIdx := 0
	needIdx := 0
	for i := start; i < fnType.NumIn(); i++ {
		paramType := fnType.In(i)
		if hasQueryMapTag && md.QueryMapIndex == metadata.NoIndex && isStringMap(paramType) {
			md.QueryMapIndex = argIdx
			argIdx++
			continue
		}
		if hasHeaderMapTag && md.HeaderMapIndex == metadata.NoIndex && isStringMap(paramType) {
			md.HeaderMapIndex = argIdx
			argIdx++
			continue
		}
		if md.OptionsIndex == metadata.NoIndex && paramType == optionsType {
			md.OptionsIndex = argIdx
			argIdx++
			continue
		}
		if hasURITag && md.URIIndex == metadata.NoIndex && paramType.Kind() == reflect.String {
			md.URIIndex = argIdx
			argIdx++
			continue
		}
		if needIdx < len(needed) {
			md.IndexToName[argIdx] = []string{needed[needIdx]}
			needIdx++
			argIdx++
			continue
		}
		if len(md.FormParams) > 0 {
			return &metadata.ContractError{Message: "method " + md.ConfigKey + ": body parameters cannot be used with form parameters"}
		}
		if md.BodyIndex == metadata.NoIndex {
			md.BodyIndex = argIdx
			md.BodyType = paramType
			argIdx++
			continue
		}
		argIdx++
	}
	return nil
}

func isStringMap(t reflect.Type) bool {
	if t.Kind() != reflect.Map {
		return false
	}
	if t.Key().Kind() != reflect.String {
		return false
	}
	switch t.Elem().Kind() {
	case reflect.String, reflect.Slice:
		return true
	default:
		return false
	}
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// parseHeaderTag parses "Name: value, Name2: {var}" into an ordered
// name -> []value-template map.
func parseHeaderTag(tag string) (map[string][]string, []string, error) {
	headers := map[string][]string{}
	var order []string
	if tag == "" {
		return headers, order, nil
	}
	for _, entry := range strings.Split(tag, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, value, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, nil, errors.New("malformed feign-headers entry " + entry)
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if _, exists := headers[name]; !exists {
			order = append(order, name)
		}
		headers[name] = append(headers[name], value)
	}
	return headers, order, nil
}

// mergeHeaders applies SPEC_FULL.md §9's resolved policy: method-level
// entries override class-level entries by header name, case-insensitively.
func mergeHeaders(classHeaders map[string][]string, classOrder []string, methodTag string) (map[string][]string, []string, error) {
	methodHeaders, methodOrder, err := parseHeaderTag(methodTag)
	if err != nil {
		return nil, nil, err
	}
	overridden := map[string]bool{}
	for name := range methodHeaders {
		overridden[strings.ToLower(name)] = true
	}

	merged := map[string][]string{}
	var order []string
	for _, name := range classOrder {
		if overridden[strings.ToLower(name)] {
			continue
		}
		merged[name] = classHeaders[name]
		order = append(order, name)
	}
	for _, name := range methodOrder {
		merged[name] = methodHeaders[name]
		order = append(order, name)
	}
	return merged, order, nil
}

func parseCollectionFormat(s string) metadata.CollectionFormat {
	switch strings.ToLower(s) {
	case "csv":
		return metadata.CSV
	case "ssv":
		return metadata.SSV
	case "tsv":
		return metadata.TSV
	case "pipes":
		return metadata.Pipes
	default:
		return metadata.Exploded
	}
}

// ShardKey hashes a config key into a sharded lookup key for the
// metadata table, grounded on EdgeComet-engine's hostsCache sharding
// pattern — a purely internal optimization, not part of the public
// contract.
func ShardKey(configKey string, shards int) int {
	if shards <= 0 {
		shards = 1
	}
	return int(xxhash.Sum64String(configKey) % uint64(shards))
}

// Package uritemplate implements the subset of RFC 6570 ({name} simple
// string expansion, §3.2.2) needed by the request template model: parsing
// a template string into literal and expression chunks, then expanding
// those chunks against a variable map with fragment-aware percent-encoding.
package uritemplate

import (
	"fmt"
	"regexp"
	"strings"
)

// FragmentType selects which RFC 3986 reserved-character set applies when
// an expanded value is percent-encoded.
type FragmentType int

const (
	// PathSegment leaves pchar (sub-delims, ':', '@') unescaped in
	// addition to the unreserved set.
	PathSegment FragmentType = iota
	// Query leaves only the unreserved set unescaped; everything with
	// syntactic meaning in a query string is percent-encoded.
	Query
)

// ResolutionPolicy controls what happens when a variable named by an
// expression has no binding in the variable map passed to Expand.
type ResolutionPolicy int

const (
	// AllowUnresolved keeps the "{name}" literal in the output.
	AllowUnresolved ResolutionPolicy = iota
	// Required drops the value; Expand returns the Undef sentinel so
	// callers (query/header templates) can treat it as "value absent".
	Required
)

// Undef is the sentinel returned by Expand for a Required expression with
// no bound value. It is not a value any real expansion can produce.
const Undef = "\x00gofeign:undef\x00"

// valueDelimiter separates the stringified elements of an iterable value
// so a downstream collection-format join can re-split and re-join them.
const valueDelimiter = ";"

var exprNameRe = regexp.MustCompile(`^(\w[-\w.\[\]]*)(:(.+))?$`)

type chunkKind int

const (
	literalChunk chunkKind = iota
	exprChunk
)

// Expression is a single {name} or {name:regex} placeholder.
type Expression struct {
	Name       string
	Constraint *regexp.Regexp
}

type chunk struct {
	kind chunkKind
	lit  string
	expr Expression
}

// Template is a parsed sequence of literal and expression chunks.
type Template struct {
	raw    string
	chunks []chunk
}

// Parse scans raw into literal and expression chunks. A '{' opens an
// expression; braces nested inside an expression are treated as literal
// content of the outer expression — only the outermost pair delimits it.
// If the text between the outermost braces doesn't match the expression
// grammar, the whole "{...}" span (braces included) becomes a literal.
func Parse(raw string) (*Template, error) {
	t := &Template{raw: raw}
	i := 0
	var lit strings.Builder
	for i < len(raw) {
		c := raw[i]
		if c != '{' {
			lit.WriteByte(c)
			i++
			continue
		}
		// Find the matching closing brace, counting nested '{'/'}'.
		depth := 1
		j := i + 1
		for j < len(raw) && depth > 0 {
			switch raw[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				break
			}
			j++
		}
		if depth != 0 {
			// Unterminated '{': rest of the string is literal.
			lit.WriteString(raw[i:])
			i = len(raw)
			break
		}
		inner := raw[i+1 : j]
		expr, ok := parseExpression(inner)
		if !ok {
			// Not a valid expression: the whole "{...}" is literal.
			lit.WriteString(raw[i : j+1])
			i = j + 1
			continue
		}
		if lit.Len() > 0 {
			t.chunks = append(t.chunks, chunk{kind: literalChunk, lit: lit.String()})
			lit.Reset()
		}
		t.chunks = append(t.chunks, chunk{kind: exprChunk, expr: expr})
		i = j + 1
	}
	if lit.Len() > 0 {
		t.chunks = append(t.chunks, chunk{kind: literalChunk, lit: lit.String()})
	}
	return t, nil
}

// MustParse is Parse but panics on error; used for compile-time constants.
func MustParse(raw string) *Template {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func parseExpression(inner string) (Expression, bool) {
	m := exprNameRe.FindStringSubmatch(inner)
	if m == nil {
		return Expression{}, false
	}
	expr := Expression{Name: m[1]}
	if m[3] != "" {
		re, err := regexp.Compile(m[3])
		if err != nil {
			return Expression{}, false
		}
		expr.Constraint = re
	}
	return expr, true
}

// Names returns the variable names referenced by this template's
// expressions, in order of first appearance.
func (t *Template) Names() []string {
	var names []string
	for _, c := range t.chunks {
		if c.kind == exprChunk {
			names = append(names, c.expr.Name)
		}
	}
	return names
}

// Raw returns the original template string.
func (t *Template) Raw() string { return t.raw }

// IsLiteral reports whether the template contains no expressions at all.
func (t *Template) IsLiteral() bool {
	for _, c := range t.chunks {
		if c.kind == exprChunk {
			return false
		}
	}
	return true
}

// Expand resolves every chunk against vars and concatenates the result.
// vars maps a name to a scalar (stringified via fmt.Sprintf("%v", v)), a
// []string, a []interface{}, or nil/absent. fragment selects the
// percent-encoding table; policy governs missing-variable behavior.
//
// If any expression resolves to Undef under the Required policy, Expand
// itself returns (Undef, nil) for the WHOLE template — only call Expand
// directly on single-expression templates (query/header value templates)
// when Required is in play; multi-chunk URI templates should use
// AllowUnresolved.
func (t *Template) Expand(vars map[string]interface{}, fragment FragmentType, policy ResolutionPolicy, charset string) (string, error) {
	if err := checkCharset(charset); err != nil {
		return "", err
	}
	var out strings.Builder
	for _, c := range t.chunks {
		switch c.kind {
		case literalChunk:
			out.WriteString(c.lit)
		case exprChunk:
			v, present := vars[c.expr.Name]
			if !present || v == nil {
				switch policy {
				case AllowUnresolved:
					out.WriteString("{" + c.expr.Name + "}")
					continue
				case Required:
					return Undef, nil
				}
			}
			s, err := stringify(v)
			if err != nil {
				return "", err
			}
			if c.expr.Constraint != nil && !c.expr.Constraint.MatchString(s) {
				return "", fmt.Errorf("uritemplate: value %q for %q does not match constraint %q", s, c.expr.Name, c.expr.Constraint.String())
			}
			out.WriteString(encode(s, fragment))
		}
	}
	return out.String(), nil
}

// ExpandElements is for query value templates that are exactly one bare
// expression ("{name}", no surrounding literal text): when the bound
// value is an iterable, it returns one percent-encoded string per
// element instead of joining them first and encoding the joined whole
// (which would corrupt any separator byte that isn't itself unreserved).
// A template that is NOT a single bare expression falls back to Expand's
// normal single-string behavior, returned as a one-element slice.
// Returns ok=false if the (sole) variable is unbound.
func (t *Template) ExpandElements(vars map[string]interface{}, fragment FragmentType, charset string) (elements []string, ok bool, err error) {
	return t.expandElements(vars, fragment, charset, true)
}

// ExpandRawElements is ExpandElements without percent-encoding — used for
// header value templates, where the result is literal header text rather
// than a URI component and must be validated (by the caller, via
// httpguts) instead of encoded.
func (t *Template) ExpandRawElements(vars map[string]interface{}, charset string) (elements []string, ok bool, err error) {
	return t.expandElements(vars, PathSegment, charset, false)
}

func (t *Template) expandElements(vars map[string]interface{}, fragment FragmentType, charset string, doEncode bool) (elements []string, ok bool, err error) {
	if err := checkCharset(charset); err != nil {
		return nil, false, err
	}
	if len(t.chunks) != 1 || t.chunks[0].kind != exprChunk {
		policy := Required
		s, err := t.Expand(vars, fragment, policy, charset)
		if err != nil {
			return nil, false, err
		}
		if s == Undef {
			return nil, false, nil
		}
		return []string{s}, true, nil
	}

	expr := t.chunks[0].expr
	v, present := vars[expr.Name]
	if !present || v == nil {
		return nil, false, nil
	}

	raw := flatten(v)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if expr.Constraint != nil && !expr.Constraint.MatchString(s) {
			return nil, false, fmt.Errorf("uritemplate: value %q for %q does not match constraint %q", s, expr.Name, expr.Constraint.String())
		}
		if doEncode {
			s = encode(s, fragment)
		}
		out = append(out, s)
	}
	return out, true, nil
}

// flatten turns a bound variable into its list of scalar string elements
// without any join/encode step — a single-element slice for a scalar, or
// one element per entry of a []string/[]interface{}.
func flatten(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []string:
		return append([]string(nil), val...)
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, e := range val {
			out = append(out, flatten(e)...)
		}
		return out
	default:
		return []string{fmt.Sprintf("%v", val)}
	}
}

func checkCharset(charset string) error {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return nil
	default:
		return fmt.Errorf("uritemplate: unsupported charset %q", charset)
	}
}

// stringify turns a bound variable into its pre-encoding string form.
// Iterable values are joined with valueDelimiter so a collection-format
// layer above can re-split and re-join them per its own format.
func stringify(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []string:
		return strings.Join(val, valueDelimiter), nil
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, e := range val {
			s, err := stringify(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, valueDelimiter), nil
	default:
		return fmt.Sprintf("%v", val), nil
	}
}

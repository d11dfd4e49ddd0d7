package feign

import (
	"strings"

	"github.com/gofeign/gofeign/feign/metadata"
	"github.com/gofeign/gofeign/feign/uritemplate"
)

// QueryTemplate is one query-string parameter: a name template (almost
// always a literal) plus one or more value templates, joined per the
// declared CollectionFormat. A "pure" template (no value templates at
// all) renders as a bare flag, e.g. "?verbose" rather than "?verbose=".
type QueryTemplate struct {
	Name   *uritemplate.Template
	Values []*uritemplate.Template
	Format metadata.CollectionFormat
	pure   bool
}

// NewQueryTemplate parses a name and zero or more value template strings.
func NewQueryTemplate(name string, values []string, format metadata.CollectionFormat) (*QueryTemplate, error) {
	nameTmpl, err := uritemplate.Parse(name)
	if err != nil {
		return nil, err
	}
	qt := &QueryTemplate{Name: nameTmpl, Format: format, pure: len(values) == 0}
	for _, v := range values {
		vt, err := uritemplate.Parse(v)
		if err != nil {
			return nil, err
		}
		qt.Values = append(qt.Values, vt)
	}
	return qt, nil
}

// String renders the unresolved diagnostic form ("name={var1},{var2}").
func (q *QueryTemplate) String() string {
	if q.pure {
		return q.Name.Raw()
	}
	parts := make([]string, len(q.Values))
	for i, v := range q.Values {
		parts[i] = v.Raw()
	}
	return q.Name.Raw() + "=" + strings.Join(parts, ",")
}

// Expand resolves the name and every value template against vars. The
// four-step algorithm of SPEC_FULL.md §4.2:
//  1. resolve the name template (AllowUnresolved — a query key is rarely
//     itself a template, but nothing stops it from being one);
//  2. resolve each value template under the Required policy, dropping any
//     that come back Undef (the variable had no binding);
//  3. a pure (flag-style) template with no value templates renders the
//     bare name with no "=" and no values;
//  4. remaining resolved values are joined per Format and rendered; if
//     every value dropped, the whole parameter is omitted ("param
//     absent" per the testable property in SPEC_FULL.md §8).
func (q *QueryTemplate) Expand(vars map[string]interface{}, charset string) (name string, rendered []string, ok bool, err error) {
	name, err = q.Name.Expand(vars, uritemplate.Query, uritemplate.AllowUnresolved, charset)
	if err != nil {
		return "", nil, false, err
	}
	if q.pure {
		return name, nil, true, nil
	}
	var resolved []string
	for _, v := range q.Values {
		elements, ok, err := v.ExpandElements(vars, uritemplate.Query, charset)
		if err != nil {
			return "", nil, false, err
		}
		if !ok {
			continue
		}
		resolved = append(resolved, elements...)
	}
	if len(resolved) == 0 {
		return name, nil, false, nil
	}
	if q.Format == metadata.Exploded {
		return name, resolved, true, nil
	}
	return name, []string{strings.Join(resolved, q.Format.Separator())}, true, nil
}

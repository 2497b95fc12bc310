// Package parser extracts parameter placeholders from command template text.
//
// Placeholders are delimited spans of the form {{name}}, {{name:type}},
// {{name:type:required}}, or {{name:type:default=literal}}. Parsing is a
// single deterministic pass over the template, purely syntactic: it never
// touches storage and never validates values.
package parser

import (
	"regexp"
	"strings"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// placeholderPattern matches one {{...}} span. The body is split on ':' into
// name, optional type, and optional modifier.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// identPattern constrains parameter names inside placeholders.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Placeholder is a single placeholder occurrence within a template.
type Placeholder struct {
	Name  string
	Start int // byte offset of the opening brace pair
	End   int // byte offset just past the closing brace pair
	Raw   string
	Spec  types.ParameterSpec
}

// Scan returns every placeholder occurrence in order of appearance, without
// cross-occurrence consistency checks. The renderer uses this to locate
// spans; Parse uses it to build the spec set.
func Scan(templateText string) ([]Placeholder, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(templateText, -1)
	out := make([]Placeholder, 0, len(matches))
	for _, m := range matches {
		raw := templateText[m[0]:m[1]]
		body := templateText[m[2]:m[3]]
		spec, err := parseBody(body)
		if err != nil {
			return nil, errors.WithDetailf(err, "Placeholder: %s", raw)
		}
		out = append(out, Placeholder{
			Name:  spec.Name,
			Start: m[0],
			End:   m[1],
			Raw:   raw,
			Spec:  spec,
		})
	}
	return out, nil
}

// Parse extracts the parameter specification set from a template. A name
// appearing more than once with conflicting type or modifier fails with an
// ambiguous-parameter error naming both occurrences. Templates without
// placeholders produce an empty map: a fixed, parameterless command.
func Parse(templateText string) (map[string]types.ParameterSpec, error) {
	placeholders, err := Scan(templateText)
	if err != nil {
		return nil, err
	}

	specs := make(map[string]types.ParameterSpec, len(placeholders))
	firstRaw := make(map[string]string, len(placeholders))
	for _, ph := range placeholders {
		prev, seen := specs[ph.Name]
		if !seen {
			specs[ph.Name] = ph.Spec
			firstRaw[ph.Name] = ph.Raw
			continue
		}
		if !compatible(prev, ph.Spec) {
			err := errors.Wrapf(types.ErrAmbiguousParameter,
				"parameter %q declared as both %s and %s", ph.Name, firstRaw[ph.Name], ph.Raw)
			return nil, err
		}
		// A later occurrence may add constraints a bare {{name}} omitted
		specs[ph.Name] = merge(prev, ph.Spec)
	}
	return specs, nil
}

// parseBody parses "name[:type][:modifier]" into a spec. Only the first two
// colons delimit segments; later colons belong to the modifier, so a default
// literal may itself contain colons (datetimes, times, URIs).
func parseBody(body string) (types.ParameterSpec, error) {
	parts := strings.SplitN(body, ":", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	spec := types.ParameterSpec{Type: types.ParamString}
	spec.Name = parts[0]
	if !identPattern.MatchString(spec.Name) {
		return spec, errors.Wrapf(types.ErrInvalidDefinition, "invalid parameter name %q", spec.Name)
	}

	rest := parts[1:]

	// The first segment after the name is a type unless it reads as a
	// modifier, which covers the {{name:required}} shorthand.
	if len(rest) > 0 && !isModifier(rest[0]) {
		if t := types.ParamType(strings.ToLower(rest[0])); types.KnownParamType(t) {
			spec.Type = t
		}
		// Unknown type tokens stay string
		rest = rest[1:]
	} else if len(rest) == 2 {
		// Modifier first means the type was omitted; rejoin what SplitN cut
		// so a colon-bearing default survives.
		rest = []string{rest[0] + ":" + rest[1]}
	}

	for _, mod := range rest {
		switch {
		case mod == "required":
			spec.Required = true
		case strings.HasPrefix(mod, "default="):
			spec.Default = strings.TrimPrefix(mod, "default=")
		case mod == "":
			// trailing colon, tolerated
		default:
			return spec, errors.Wrapf(types.ErrInvalidDefinition,
				"unknown modifier %q for parameter %q", mod, spec.Name)
		}
	}

	if spec.Required && spec.HasDefault() {
		return spec, errors.Wrapf(types.ErrInvalidDefinition,
			"parameter %q is required and cannot carry a default", spec.Name)
	}

	return spec, nil
}

func isModifier(s string) bool {
	return s == "required" || strings.HasPrefix(s, "default=")
}

// compatible reports whether two declarations of the same name agree.
// A bare {{name}} (string, no modifiers) is compatible with any richer
// declaration of the same name.
func compatible(a, b types.ParameterSpec) bool {
	if bare(a) || bare(b) {
		return true
	}
	if a.Type != b.Type {
		return false
	}
	if a.Required != b.Required {
		return false
	}
	return a.Default == b.Default
}

func bare(s types.ParameterSpec) bool {
	return s.Type == types.ParamString && !s.Required && !s.HasDefault()
}

// merge prefers the richer of two compatible declarations.
func merge(a, b types.ParameterSpec) types.ParameterSpec {
	if bare(a) {
		return b
	}
	return a
}

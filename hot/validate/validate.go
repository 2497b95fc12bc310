// Package validate checks runtime-supplied parameter values against declared
// specs, coercing where lossless. Failures are collected, not short-circuited,
// so a caller sees every problem in one round trip.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// Validate coerces and checks supplied values against specs.
//
// Missing required parameters, type mismatches, option violations, pattern
// mismatches, and unknown names are all gathered into one ValidationError.
// Optional parameters that are neither supplied nor defaulted are left out
// of the result entirely.
func Validate(specs map[string]types.ParameterSpec, supplied map[string]interface{}) (types.ValidatedParams, error) {
	var issues []types.ValidationIssue
	out := make(types.ValidatedParams, len(specs))

	for _, name := range sortedNames(specs) {
		spec := specs[name]
		raw, present := supplied[name]

		if !present {
			if spec.Required {
				issues = append(issues, types.ValidationIssue{
					Kind:    types.ErrKindMissingRequired,
					Name:    name,
					Message: fmt.Sprintf("missing required parameter %q", name),
				})
				continue
			}
			if !spec.HasDefault() {
				continue
			}
			raw = spec.Default
		}

		typed, err := Coerce(raw, spec.Type)
		if err != nil {
			issues = append(issues, types.ValidationIssue{
				Kind:    types.ErrKindTypeMismatch,
				Name:    name,
				Message: fmt.Sprintf("parameter %q: expected %s, got %v", name, spec.Type, raw),
			})
			continue
		}

		value := types.Value{Spec: spec, Typed: typed, FromDefault: !present}

		if issue := checkOptions(name, spec, value); issue != nil {
			issues = append(issues, *issue)
			continue
		}

		if spec.ValidationRegex != "" {
			pattern, err := regexp.Compile(spec.ValidationRegex)
			if err != nil {
				// A regex that does not compile is a definition defect,
				// not a caller mistake; fail the whole call.
				return nil, errors.Wrapf(types.ErrInvalidDefinition,
					"parameter %q has invalid validation pattern %q", name, spec.ValidationRegex)
			}
			if !pattern.MatchString(value.CanonicalString()) {
				issues = append(issues, types.ValidationIssue{
					Kind:    types.ErrKindPatternMismatch,
					Name:    name,
					Message: fmt.Sprintf("parameter %q does not match pattern %s", name, spec.ValidationRegex),
				})
				continue
			}
		}

		out[name] = value
	}

	// Extra supplied names with no matching spec are rejected, never
	// silently dropped.
	for _, name := range sortedKeys(supplied) {
		if _, ok := specs[name]; !ok {
			issues = append(issues, types.ValidationIssue{
				Kind:    types.ErrKindUnknownParameter,
				Name:    name,
				Message: fmt.Sprintf("unknown parameter %q", name),
			})
		}
	}

	if len(issues) > 0 {
		return nil, &types.ValidationError{Issues: issues}
	}
	return out, nil
}

// CheckSpecs validates a parameter specification set at definition time:
// required parameters cannot carry defaults, defaults must coerce to the
// declared type, a default must be a member of a non-empty options list, and
// validation patterns must compile.
func CheckSpecs(specs map[string]types.ParameterSpec) error {
	for _, name := range sortedNames(specs) {
		spec := specs[name]
		if spec.Name != "" && spec.Name != name {
			return errors.Wrapf(types.ErrInvalidDefinition,
				"parameter key %q does not match spec name %q", name, spec.Name)
		}
		if spec.Required && spec.HasDefault() {
			return errors.Wrapf(types.ErrInvalidDefinition,
				"parameter %q is required and cannot carry a default", name)
		}
		if !types.KnownParamType(spec.Type) {
			return errors.Wrapf(types.ErrInvalidDefinition,
				"parameter %q has unknown type %q", name, spec.Type)
		}
		if spec.ValidationRegex != "" {
			if _, err := regexp.Compile(spec.ValidationRegex); err != nil {
				return errors.Wrapf(types.ErrInvalidDefinition,
					"parameter %q has invalid validation pattern %q", name, spec.ValidationRegex)
			}
		}
		if spec.HasDefault() {
			typed, err := Coerce(spec.Default, spec.Type)
			if err != nil {
				return errors.Wrapf(types.ErrInvalidDefinition,
					"parameter %q default %v is not a valid %s", name, spec.Default, spec.Type)
			}
			if len(spec.Options) > 0 {
				v := types.Value{Spec: spec, Typed: typed}
				if issue := checkOptions(name, spec, v); issue != nil {
					return errors.Wrapf(types.ErrInvalidDefinition,
						"parameter %q default %v is not among its options", name, spec.Default)
				}
			}
		}
	}
	return nil
}

// Coerce converts a raw supplied value to the canonical Go representation of
// the target type. Only lossless conversions succeed.
func Coerce(raw interface{}, target types.ParamType) (interface{}, error) {
	switch target {
	case types.ParamString:
		return coerceString(raw)
	case types.ParamInteger:
		return coerceInteger(raw)
	case types.ParamFloat:
		return coerceFloat(raw)
	case types.ParamBoolean:
		return coerceBoolean(raw)
	case types.ParamDate:
		return coerceTime(raw, types.DateLayout)
	case types.ParamDateTime:
		return coerceTime(raw, types.DateTimeLayout)
	case types.ParamList:
		return coerceList(raw)
	default:
		return nil, errors.Newf("unknown parameter type %q", target)
	}
}

func coerceString(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return nil, errors.Newf("cannot represent %T as string", raw)
	}
}

func coerceInteger(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		// JSON numbers arrive as float64; accept only integral values
		if v != float64(int64(v)) {
			return nil, errors.Newf("%v is not an integer", v)
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, errors.Newf("%q is not an integer", v)
		}
		return n, nil
	default:
		return nil, errors.Newf("cannot coerce %T to integer", raw)
	}
}

func coerceFloat(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errors.Newf("%q is not a number", v)
		}
		return f, nil
	default:
		return nil, errors.Newf("cannot coerce %T to float", raw)
	}
}

func coerceBoolean(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, errors.Newf("%q is not a boolean", v)
		}
		return b, nil
	default:
		return nil, errors.Newf("cannot coerce %T to boolean", raw)
	}
}

func coerceTime(raw interface{}, layout string) (interface{}, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
		// A datetime parameter also accepts a bare date
		if layout == types.DateTimeLayout {
			if t, err := time.Parse(types.DateLayout, s); err == nil {
				return t, nil
			}
		}
		return nil, errors.Newf("%q is not a valid %s", v, layoutName(layout))
	default:
		return nil, errors.Newf("cannot coerce %T to %s", raw, layoutName(layout))
	}
}

func layoutName(layout string) string {
	if layout == types.DateLayout {
		return "date"
	}
	return "datetime"
}

func coerceList(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case []interface{}:
		return v, nil
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case string:
		parts := strings.Split(v, ",")
		out := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	default:
		return nil, errors.Newf("cannot coerce %T to list", raw)
	}
}

// checkOptions verifies membership in the allowed options set, comparing by
// canonical string form so "10" and 10 agree. List values check element-wise.
func checkOptions(name string, spec types.ParameterSpec, value types.Value) *types.ValidationIssue {
	if len(spec.Options) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(spec.Options))
	var allowedStrings []string
	for _, opt := range spec.Options {
		s := types.Value{Typed: opt}.CanonicalString()
		allowed[s] = struct{}{}
		allowedStrings = append(allowedStrings, s)
	}

	var candidates []string
	if list, ok := value.Typed.([]interface{}); ok {
		for _, item := range list {
			candidates = append(candidates, types.Value{Typed: item}.CanonicalString())
		}
	} else {
		candidates = []string{value.CanonicalString()}
	}

	for _, c := range candidates {
		if _, ok := allowed[c]; !ok {
			return &types.ValidationIssue{
				Kind:    types.ErrKindInvalidOption,
				Name:    name,
				Message: fmt.Sprintf("parameter %q value %q is not one of [%s]", name, c, strings.Join(allowedStrings, ", ")),
			}
		}
	}
	return nil
}

func sortedNames(specs map[string]types.ParameterSpec) []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

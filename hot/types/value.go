package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date formats accepted and produced for date/datetime parameters.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = time.RFC3339
)

// Value is a validated, coerced parameter value.
//
// Typed holds the canonical Go representation after coercion:
// string, int64, float64, bool, time.Time, or []interface{}.
type Value struct {
	Spec  ParameterSpec `json:"spec"`
	Typed interface{}   `json:"value"`
	// FromDefault marks values filled in from the spec default rather
	// than supplied by the caller.
	FromDefault bool `json:"from_default,omitempty"`
}

// ValidatedParams maps parameter name to its validated value. Optional
// parameters that were neither supplied nor defaulted are absent from the
// map entirely, which keeps "unset" distinguishable from an empty string.
type ValidatedParams map[string]Value

// CanonicalString returns the canonical textual form of the value: the form
// substituted into natural-language templates and quoted into SQL literals.
func (v Value) CanonicalString() string {
	switch tv := v.Typed.(type) {
	case nil:
		return ""
	case string:
		return tv
	case int64:
		return strconv.FormatInt(tv, 10)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(tv)
	case time.Time:
		if v.Spec.Type == ParamDate {
			return tv.Format(DateLayout)
		}
		return tv.Format(DateTimeLayout)
	case []interface{}:
		parts := make([]string, len(tv))
		for i, item := range tv {
			parts[i] = Value{Typed: item}.CanonicalString()
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", tv)
	}
}

// Strings flattens the validated set into name → canonical string form.
// Used for audit records and cache fingerprints.
func (p ValidatedParams) Strings() map[string]string {
	out := make(map[string]string, len(p))
	for name, v := range p {
		out[name] = v.CanonicalString()
	}
	return out
}

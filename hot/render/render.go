// Package render substitutes validated parameter values into command
// templates. This is the last line of defense against injection: direct-SQL
// templates only ever receive properly quoted literals, never raw
// concatenated text.
package render

import (
	"strings"
	"time"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/parser"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// Render replaces each placeholder span in templateText with the validated
// value's textual form chosen per backend safety rules:
//
//   - KindDirectQuery: values become quoted/escaped SQL literals
//   - KindNLQuery: values are inserted as plain natural-language tokens
//     (the text goes to a translator, not an executor)
//
// Tool-call commands use Args instead; Render rejects them.
//
// A placeholder naming a parameter absent from validated fails with an
// unresolved-placeholder error. The parser and validator invariants should
// make that unreachable, but the renderer checks anyway.
func Render(templateText string, kind types.CommandKind, validated types.ValidatedParams) (string, error) {
	if kind == types.KindToolCall {
		return "", errors.Newf("tool_call commands render to an argument map, not text")
	}

	placeholders, err := parser.Scan(templateText)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(templateText))
	last := 0
	for _, ph := range placeholders {
		value, ok := validated[ph.Name]
		if !ok {
			return "", errors.Wrapf(types.ErrUnresolvedPlaceholder,
				"placeholder %q has no validated value", ph.Name)
		}

		b.WriteString(templateText[last:ph.Start])
		switch kind {
		case types.KindDirectQuery:
			b.WriteString(SQLLiteral(value))
		default:
			b.WriteString(value.CanonicalString())
		}
		last = ph.End
	}
	b.WriteString(templateText[last:])

	return b.String(), nil
}

// Args builds the structured argument map for a tool-call command. The
// placeholder spans in the template name the arguments the tool receives;
// values are passed typed, not stringified, so the transport can serialize
// them natively.
func Args(templateText string, validated types.ValidatedParams) (map[string]interface{}, error) {
	placeholders, err := parser.Scan(templateText)
	if err != nil {
		return nil, err
	}

	args := make(map[string]interface{}, len(placeholders))
	for _, ph := range placeholders {
		value, ok := validated[ph.Name]
		if !ok {
			return nil, errors.Wrapf(types.ErrUnresolvedPlaceholder,
				"placeholder %q has no validated value", ph.Name)
		}
		args[ph.Name] = jsonSafe(value)
	}
	return args, nil
}

// SQLLiteral renders a validated value as a safe SQL literal. Strings and
// timestamps are single-quoted with embedded quotes doubled; numbers pass
// through bare; booleans become 1/0; lists become parenthesized tuples for
// use with IN (...).
func SQLLiteral(v types.Value) string {
	switch tv := v.Typed.(type) {
	case int64:
		return v.CanonicalString()
	case float64:
		return v.CanonicalString()
	case bool:
		if tv {
			return "1"
		}
		return "0"
	case []interface{}:
		parts := make([]string, len(tv))
		for i, item := range tv {
			parts[i] = SQLLiteral(types.Value{Typed: item})
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return quoteSQLString(v.CanonicalString())
	}
}

// quoteSQLString single-quotes s, doubling embedded single quotes and
// stripping NUL bytes, which no legitimate parameter contains.
func quoteSQLString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// jsonSafe converts a typed value to something the tool transport can
// serialize directly.
func jsonSafe(v types.Value) interface{} {
	switch tv := v.Typed.(type) {
	case time.Time:
		return v.CanonicalString()
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, item := range tv {
			out[i] = jsonSafe(types.Value{Typed: item})
		}
		return out
	default:
		return tv
	}
}

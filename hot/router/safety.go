package router

import (
	"strings"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// DefaultDenylist names the statement keywords rejected before any SQL
// reaches an executor: data-definition and destructive verbs. The list is
// configurable; this is the baseline.
var DefaultDenylist = []string{
	"DELETE", "DROP", "UPDATE", "INSERT", "REPLACE", "TRUNCATE",
	"ALTER", "CREATE", "GRANT", "REVOKE", "ATTACH", "DETACH",
	"PRAGMA", "VACUUM", "EXEC", "MERGE",
}

// CheckQuery rejects SQL containing any denylisted statement keyword outside
// of string literals. It is deliberately coarse: a denylisted verb anywhere
// in the statement text fails, which also catches stacked statements after a
// semicolon. Applied to translator output as well.
func CheckQuery(sqlText string, denylist []string) error {
	if len(denylist) == 0 {
		denylist = DefaultDenylist
	}

	denied := make(map[string]struct{}, len(denylist))
	for _, verb := range denylist {
		denied[strings.ToUpper(verb)] = struct{}{}
	}

	for _, token := range tokenize(sqlText) {
		if _, bad := denied[token]; bad {
			return errors.Wrapf(types.ErrUnsafeQuery, "statement contains denied keyword %s", token)
		}
	}
	return nil
}

// CheckSelectOnly additionally requires the statement to start with SELECT
// or WITH. Applied to translator output, which must only ever read.
func CheckSelectOnly(sqlText string) error {
	tokens := tokenize(sqlText)
	if len(tokens) == 0 {
		return errors.Wrap(types.ErrTranslation, "translator produced no statement")
	}
	if tokens[0] != "SELECT" && tokens[0] != "WITH" {
		return errors.Wrapf(types.ErrUnsafeQuery, "translated statement starts with %s, expected SELECT", tokens[0])
	}
	return nil
}

// tokenize splits SQL into uppercase word tokens, skipping the contents of
// single-quoted string literals so that a literal like 'drop zone' cannot
// trip the denylist.
func tokenize(sqlText string) []string {
	var tokens []string
	var current strings.Builder
	inString := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.ToUpper(current.String()))
			current.Reset()
		}
	}

	runes := []rune(sqlText)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if inString {
			if c == '\'' {
				// Doubled quote is an escaped quote inside the literal
				if i+1 < len(runes) && runes[i+1] == '\'' {
					i++
					continue
				}
				inString = false
			}
			continue
		}
		switch {
		case c == '\'':
			flush()
			inString = true
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			current.WriteRune(c)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

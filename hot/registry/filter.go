package registry

import (
	"strings"

	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

const defaultListLimit = 100

// queryBuilder accumulates SQL WHERE clauses and parameters for definition
// list queries.
type queryBuilder struct {
	whereClauses []string
	args         []interface{}
	limit        int
}

func newQueryBuilder(owner string, filter types.ListFilter) *queryBuilder {
	qb := &queryBuilder{limit: filter.Limit}
	if qb.limit <= 0 {
		qb.limit = defaultListLimit
	}

	qb.addClause("is_active = 1")
	if filter.IncludeShared {
		// Own definitions plus anything other owners marked shared
		qb.addClause("(owner = ? OR is_shared = 1)", owner)
	} else {
		qb.addClause("owner = ?", owner)
	}

	if filter.Domain != "" {
		qb.addClause("domain = ?", filter.Domain)
	}
	if filter.Category != "" {
		qb.addClause("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLikePattern(filter.Search) + "%"
		qb.addClause(`(name LIKE ? ESCAPE '\' OR display_name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}

	return qb
}

// addClause appends a WHERE clause with its arguments
func (qb *queryBuilder) addClause(clause string, args ...interface{}) {
	qb.whereClauses = append(qb.whereClauses, clause)
	qb.args = append(qb.args, args...)
}

// build returns the complete SELECT with WHERE clauses joined by AND
func (qb *queryBuilder) build() (string, []interface{}) {
	query := `SELECT ` + definitionColumns + ` FROM hot_commands WHERE ` +
		strings.Join(qb.whereClauses, " AND ") +
		` ORDER BY owner, name LIMIT ?`
	return query, append(qb.args, qb.limit)
}

// escapeLikePattern escapes special characters in LIKE patterns for SQL ESCAPE clause
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

package db

import (
	"strings"

	"github.com/vandanapadala-pg/hotcommands/errors"
)

// ErrDatabaseClosed marks operations attempted after the connection pool
// shut down. Seen at shutdown when the CLI closes the database while the
// audit worker is still draining its queue.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err means the connection is gone. The
// sql package and the sqlite driver signal closure through their own error
// values, so message matching is the only check that covers them.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

package types

import (
	"fmt"
	"strings"

	"github.com/vandanapadala-pg/hotcommands/errors"
)

// ErrorKind is the stable machine-readable classification carried by every
// error this engine surfaces. Kinds never change once released; messages may.
type ErrorKind string

const (
	// Definition errors, surfaced at creation/update time, never retried
	ErrKindDuplicateName      ErrorKind = "duplicate_name"
	ErrKindReservedName       ErrorKind = "reserved_name"
	ErrKindAmbiguousParameter ErrorKind = "ambiguous_parameter"
	ErrKindInvalidDefinition  ErrorKind = "invalid_definition"

	// Validation errors, collected and surfaced as a batch
	ErrKindMissingRequired  ErrorKind = "missing_required_parameter"
	ErrKindTypeMismatch     ErrorKind = "type_mismatch"
	ErrKindInvalidOption    ErrorKind = "invalid_option"
	ErrKindPatternMismatch  ErrorKind = "pattern_mismatch"
	ErrKindUnknownParameter ErrorKind = "unknown_parameter"

	// Safety errors, fatal, logged at elevated severity
	ErrKindUnsafeQuery           ErrorKind = "unsafe_query"
	ErrKindUnresolvedPlaceholder ErrorKind = "unresolved_placeholder"

	// Backend errors
	ErrKindTranslation     ErrorKind = "translation_error"
	ErrKindQueryExecution  ErrorKind = "query_execution_error"
	ErrKindToolUnavailable ErrorKind = "tool_unavailable"
	ErrKindToolInvocation  ErrorKind = "tool_invocation_error"

	// Timeouts and concurrency
	ErrKindTimeout         ErrorKind = "execution_timeout"
	ErrKindVersionConflict ErrorKind = "version_conflict"
	ErrKindNotFound        ErrorKind = "not_found"
)

// Sentinels. Wrap these with errors.Wrap to add context while keeping the
// kind recoverable via KindOf / errors.Is.
var (
	ErrDuplicateName         = errors.Wrap(errors.ErrConflict, "duplicate command name")
	ErrReservedName          = errors.New("reserved command name")
	ErrAmbiguousParameter    = errors.New("ambiguous parameter declaration")
	ErrInvalidDefinition     = errors.Wrap(errors.ErrInvalidRequest, "invalid command definition")
	ErrUnsafeQuery           = errors.New("unsafe query rejected")
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")
	ErrTranslation           = errors.New("translation failed")
	ErrQueryExecution        = errors.New("query execution failed")
	ErrToolUnavailable       = errors.Wrap(errors.ErrServiceUnavailable, "tool unavailable")
	ErrToolInvocation        = errors.New("tool rejected invocation")
	ErrExecutionTimeout      = errors.Wrap(errors.ErrTimeout, "execution timed out")
	ErrVersionConflict       = errors.Wrap(errors.ErrConflict, "stale version")
	ErrCommandNotFound       = errors.Wrap(errors.ErrNotFound, "command not found")
)

var kindSentinels = []struct {
	kind ErrorKind
	err  error
}{
	{ErrKindDuplicateName, ErrDuplicateName},
	{ErrKindReservedName, ErrReservedName},
	{ErrKindAmbiguousParameter, ErrAmbiguousParameter},
	{ErrKindInvalidDefinition, ErrInvalidDefinition},
	{ErrKindUnsafeQuery, ErrUnsafeQuery},
	{ErrKindUnresolvedPlaceholder, ErrUnresolvedPlaceholder},
	{ErrKindTranslation, ErrTranslation},
	{ErrKindQueryExecution, ErrQueryExecution},
	{ErrKindToolUnavailable, ErrToolUnavailable},
	{ErrKindToolInvocation, ErrToolInvocation},
	{ErrKindTimeout, ErrExecutionTimeout},
	{ErrKindVersionConflict, ErrVersionConflict},
	{ErrKindNotFound, ErrCommandNotFound},
}

// KindOf maps an error to its stable kind. Validation batches report their
// first issue's kind. Unrecognized errors map to the empty kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) && len(verr.Issues) > 0 {
		return verr.Issues[0].Kind
	}
	for _, entry := range kindSentinels {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return ""
}

// ValidationIssue is one problem found while validating supplied parameter
// values against declared specs.
type ValidationIssue struct {
	Kind    ErrorKind `json:"kind"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
}

// ValidationError batches every validation issue found in one pass so the
// caller sees all problems in a single round trip.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "parameter validation failed"
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
	}
	return fmt.Sprintf("parameter validation failed: %s", strings.Join(msgs, "; "))
}

// Has reports whether the batch contains an issue of the given kind for the
// named parameter.
func (e *ValidationError) Has(kind ErrorKind, name string) bool {
	for _, issue := range e.Issues {
		if issue.Kind == kind && issue.Name == name {
			return true
		}
	}
	return false
}

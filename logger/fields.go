package logger

// Standard field names for consistent structured logging across hotcommands.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldOwner       = "owner"
	FieldInvoker     = "invoker"
	FieldCommand     = "command"
	FieldCommandID   = "command_id"
	FieldExecutionID = "execution_id"
	FieldVersion     = "version"

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldKind      = "kind"
	FieldQuery     = "query"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldStartTime  = "start_time"

	// Errors
	FieldError     = "error"
	FieldErrorKind = "error_kind"

	// Counts and sizes
	FieldRowCount = "row_count"
	FieldAttempt  = "attempt"
)

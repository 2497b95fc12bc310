// Package types defines the hot command data model shared across the
// parser, validator, renderer, router, registry, and audit packages.
package types

import (
	"regexp"
	"time"
)

// CommandKind selects the execution route for a command.
type CommandKind string

const (
	// KindNLQuery routes template text through the NL→SQL translator
	KindNLQuery CommandKind = "nl2sql"
	// KindDirectQuery executes rendered template text as SQL directly
	KindDirectQuery CommandKind = "direct_sql"
	// KindToolCall dispatches a structured argument map to an external tool
	KindToolCall CommandKind = "tool_call"
)

// Valid reports whether the kind is one of the three known routes.
func (k CommandKind) Valid() bool {
	switch k {
	case KindNLQuery, KindDirectQuery, KindToolCall:
		return true
	}
	return false
}

// ParamType is the declared type of a command parameter.
type ParamType string

const (
	ParamString   ParamType = "string"
	ParamInteger  ParamType = "integer"
	ParamFloat    ParamType = "float"
	ParamDate     ParamType = "date"
	ParamDateTime ParamType = "datetime"
	ParamBoolean  ParamType = "boolean"
	ParamList     ParamType = "list"
)

// KnownParamType reports whether t is a recognized parameter type.
// Unknown type tokens in templates fall back to string.
func KnownParamType(t ParamType) bool {
	switch t {
	case ParamString, ParamInteger, ParamFloat, ParamDate, ParamDateTime, ParamBoolean, ParamList:
		return true
	}
	return false
}

// ParameterSpec declares a single typed parameter of a command template.
type ParameterSpec struct {
	Name            string        `json:"name"`
	Type            ParamType     `json:"type"`
	Required        bool          `json:"required"`
	Default         interface{}   `json:"default,omitempty"`
	Description     string        `json:"description,omitempty"`
	Options         []interface{} `json:"options,omitempty"`
	ValidationRegex string        `json:"validation_regex,omitempty"`
}

// HasDefault reports whether the spec declares a default value.
func (s ParameterSpec) HasDefault() bool {
	return s.Default != nil
}

// CommandNamePattern constrains command names: leading letter, then
// letters, digits, or underscores.
var CommandNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// CommandDefinition is a named, owner-scoped, reusable query/tool template.
type CommandDefinition struct {
	ID           string                   `json:"id"`
	Owner        string                   `json:"owner"`
	Name         string                   `json:"name"`
	DisplayName  string                   `json:"display_name,omitempty"`
	Description  string                   `json:"description,omitempty"`
	TemplateText string                   `json:"template_text"`
	Kind         CommandKind              `json:"kind"`
	Domain       string                   `json:"domain,omitempty"`
	Category     string                   `json:"category,omitempty"`
	Parameters   map[string]ParameterSpec `json:"parameters"`
	// Metadata is opaque caller-supplied annotations; stored and returned
	// untouched, never interpreted.
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Version    int                    `json:"version"`
	Active     bool                   `json:"active"`
	Shared     bool                   `json:"shared"`
	UsageCount int64                  `json:"usage_count"`
	LastUsedAt *time.Time             `json:"last_used_at,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// Clone returns a deep copy of the definition. Cache entries hand out
// clones so callers can never mutate the cached copy.
func (d *CommandDefinition) Clone() *CommandDefinition {
	if d == nil {
		return nil
	}
	cp := *d
	if d.LastUsedAt != nil {
		t := *d.LastUsedAt
		cp.LastUsedAt = &t
	}
	if d.Parameters != nil {
		cp.Parameters = make(map[string]ParameterSpec, len(d.Parameters))
		for name, spec := range d.Parameters {
			if spec.Options != nil {
				opts := make([]interface{}, len(spec.Options))
				copy(opts, spec.Options)
				spec.Options = opts
			}
			cp.Parameters[name] = spec
		}
	}
	if d.Metadata != nil {
		cp.Metadata = make(map[string]interface{}, len(d.Metadata))
		for k, v := range d.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// CommandVersion is an immutable snapshot of a definition's template and
// parameters, written on every mutation of either.
type CommandVersion struct {
	ID           string                   `json:"id"`
	CommandID    string                   `json:"command_id"`
	Version      int                      `json:"version"`
	TemplateText string                   `json:"template_text"`
	Parameters   map[string]ParameterSpec `json:"parameters"`
	ChangedBy    string                   `json:"changed_by"`
	ChangeReason string                   `json:"change_reason,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

// ExecutionRecord is the append-only audit trail entry for one invocation.
// ResultSummary is a bounded projection of the result, never the payload.
type ExecutionRecord struct {
	ID             string            `json:"id"`
	CommandID      string            `json:"command_id"`
	Invoker        string            `json:"invoker"`
	SuppliedParams map[string]string `json:"supplied_params"`
	StartedAt      time.Time         `json:"started_at"`
	DurationMs     int64             `json:"duration_ms"`
	Success        bool              `json:"success"`
	ErrorKind      string            `json:"error_kind,omitempty"`
	ResultSummary  string            `json:"result_summary,omitempty"`
}

// ResultKind tags the shape of a normalized execution payload.
type ResultKind string

const (
	ResultRows   ResultKind = "rows"
	ResultScalar ResultKind = "scalar"
	ResultText   ResultKind = "text"
)

// Rows is the normalized tabular payload shape.
type Rows struct {
	Columns []string        `json:"columns"`
	Values  [][]interface{} `json:"values"`
}

// ExecutionResult is the transient, normalized outcome of one invocation.
type ExecutionResult struct {
	Success      bool        `json:"success"`
	Kind         ResultKind  `json:"result_kind"`
	Rows         *Rows       `json:"rows,omitempty"`
	Text         string      `json:"text,omitempty"`
	Scalar       interface{} `json:"scalar,omitempty"`
	DurationMs   int64       `json:"duration_ms"`
	ErrorKind    string      `json:"error_kind,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// SecurityContext identifies the caller of a registry or router operation.
// Passed explicitly rather than held in ambient global state so that
// authorization decisions stay testable in isolation.
type SecurityContext struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
}

// ListFilter narrows Registry.List results.
type ListFilter struct {
	Domain        string `json:"domain,omitempty"`
	Category      string `json:"category,omitempty"`
	Search        string `json:"search,omitempty"` // free text over name/description
	IncludeShared bool   `json:"include_shared,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// UpdatePatch carries the mutable fields of an update. Nil pointers leave
// the corresponding field untouched.
type UpdatePatch struct {
	DisplayName  *string                  `json:"display_name,omitempty"`
	Description  *string                  `json:"description,omitempty"`
	TemplateText *string                  `json:"template_text,omitempty"`
	Kind         *CommandKind             `json:"kind,omitempty"`
	Domain       *string                  `json:"domain,omitempty"`
	Category     *string                  `json:"category,omitempty"`
	Parameters   map[string]ParameterSpec `json:"parameters,omitempty"`
	Metadata     map[string]interface{}   `json:"metadata,omitempty"`
	Shared       *bool                    `json:"shared,omitempty"`
	ChangeReason string                   `json:"change_reason,omitempty"`

	// BaseVersion, when non-zero, makes the update optimistic: it fails
	// with a version conflict if the live definition has moved past it.
	BaseVersion int `json:"base_version,omitempty"`
}

// Package config loads and persists hotcommands configuration. TOML files
// merge in precedence order (system, user, project), environment variables
// override files, and a watcher picks up edits at runtime.
package config

// Config is the root hotcommands configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Translator TranslatorConfig `mapstructure:"translator"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Log        LogConfig        `mapstructure:"log"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// EngineConfig tunes command execution.
type EngineConfig struct {
	InvocationTimeoutSeconds int `mapstructure:"invocation_timeout_seconds"` // per-invocation budget (default: 30)
	CacheTTLSeconds          int `mapstructure:"cache_ttl_seconds"`          // definition cache TTL (default: 300)
	AuditBufferSize          int `mapstructure:"audit_buffer_size"`          // async audit queue depth (default: 256)
	MaxResultRows            int `mapstructure:"max_result_rows"`            // rows kept per result set (default: 1000)
	MaxToolRetries           int `mapstructure:"max_tool_retries"`           // retries on transient tool failure (default: 2)

	// Denylist overrides the built-in statement denylist; empty keeps the
	// default. Reloadable at runtime through the config watcher.
	Denylist []string `mapstructure:"denylist"`
}

// TranslatorConfig configures the NL→SQL translation endpoint. Any
// OpenAI-compatible chat completions server works: Ollama, LocalAI, hosted.
type TranslatorConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	Model             string `mapstructure:"model"`
	APIKey            string `mapstructure:"api_key"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	AllowPrivate      bool   `mapstructure:"allow_private"` // permit loopback/private endpoints
}

// ToolsConfig configures the MCP tool server subprocess.
type ToolsConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	Env     []string `mapstructure:"env"`
}

// LogConfig configures logging output.
type LogConfig struct {
	JSON bool `mapstructure:"json"` // structured JSON instead of console output
}

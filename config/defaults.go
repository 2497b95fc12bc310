package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for every option.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "hotcmd.db")

	v.SetDefault("engine.invocation_timeout_seconds", 30)
	v.SetDefault("engine.cache_ttl_seconds", 300)
	v.SetDefault("engine.audit_buffer_size", 256)
	v.SetDefault("engine.max_result_rows", 1000)
	v.SetDefault("engine.max_tool_retries", 2)
	v.SetDefault("engine.denylist", []string{})

	// Local inference by default; hosted endpoints need an api_key
	v.SetDefault("translator.base_url", "http://localhost:11434")
	v.SetDefault("translator.model", "llama3.2:3b")
	v.SetDefault("translator.timeout_seconds", 60)
	v.SetDefault("translator.requests_per_minute", 0)
	v.SetDefault("translator.allow_private", true)

	v.SetDefault("tools.command", "")
	v.SetDefault("tools.args", []string{})
	v.SetDefault("tools.env", []string{})

	v.SetDefault("log.json", false)
}

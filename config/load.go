package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/vandanapadala-pg/hotcommands/errors"
)

// File and directory permissions for config artifacts.
const (
	DefaultDirPermissions  = 0750
	DefaultFilePermissions = 0644
)

var (
	mu          sync.Mutex
	globalCfg   *Config
	globalViper *viper.Viper
)

// Load reads the merged configuration. The result is cached; use Reset in
// tests.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalCfg != nil {
		return globalCfg, nil
	}

	v := initViper()
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	globalCfg = &cfg
	return globalCfg, nil
}

// LoadFromFile loads configuration from one specific file, still applying
// defaults but skipping the merge chain and environment binding.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config from %s", path)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetViper returns the merged viper instance for dot-notation access.
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// Reset clears cached configuration.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalCfg = nil
	globalViper = nil
}

func initViper() *viper.Viper {
	if globalViper != nil {
		return globalViper
	}

	v := viper.New()
	v.SetEnvPrefix("HOTCMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("translator.api_key", "HOTCMD_TRANSLATOR_API_KEY")

	SetDefaults(v)
	mergeConfigFiles(v)

	globalViper = v
	return v
}

// UserConfigDir returns ~/.hotcmd, creating it if needed.
func UserConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".hotcmd")
	os.MkdirAll(dir, DefaultDirPermissions)
	return dir
}

// UserConfigPath returns the user config file path.
func UserConfigPath() string {
	dir := UserConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// findProjectConfig walks up from the working directory looking for
// hotcmd.toml.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, "hotcmd.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mergeConfigFiles merges files lowest precedence first: system, then user,
// then project. Environment variables override all of them via viper.
func mergeConfigFiles(v *viper.Viper) {
	paths := []string{"/etc/hotcmd/config.toml"}
	if user := UserConfigPath(); user != "" {
		paths = append(paths, user)
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, project)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		layer := viper.New()
		layer.SetConfigFile(path)
		layer.SetConfigType("toml")
		if err := layer.ReadInConfig(); err != nil {
			continue
		}
		for key, value := range layer.AllSettings() {
			v.Set(key, value)
		}
	}
}

package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/vandanapadala-pg/hotcommands/errors"
)

// Set writes one key to the user config file, creating it if missing. A
// rotating backup of the previous file is kept.
func Set(key string, value interface{}) error {
	path := UserConfigPath()
	if path == "" {
		return errors.New("could not determine home directory")
	}

	settings := make(map[string]interface{})
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &settings); err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}
	}

	setNested(settings, key, value)

	if err := createBackup(path); err != nil {
		return err
	}
	data, err := toml.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	Reset()
	return nil
}

// setNested writes a dotted key like "translator.model" into nested maps.
func setNested(settings map[string]interface{}, key string, value interface{}) {
	parts := splitKey(key)
	current := settings
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func splitKey(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	return append(parts, key[start:])
}

// createBackup keeps rotating backups (.back1, .back2, .back3) of the user
// config before each write.
func createBackup(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	back1 := path + ".back1"
	back2 := path + ".back2"
	back3 := path + ".back3"

	os.Remove(back3)
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "rotate .back2 to .back3")
		}
	}
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config for backup")
	}
	return os.WriteFile(back1, content, DefaultFilePermissions)
}

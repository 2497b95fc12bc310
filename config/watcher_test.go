package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotcmd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\ncache_ttl_seconds = 60\n"), 0644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()
	w.debouncePeriod = 20 * time.Millisecond

	reloaded := make(chan *Config, 1)
	w.OnReload(func(cfg *Config) error {
		select {
		case reloaded <- cfg:
		default:
		}
		return nil
	})
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte("[engine]\ncache_ttl_seconds = 120\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 120, cfg.Engine.CacheTTLSeconds)
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestWatcherMissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

package hot

import (
	"time"

	"github.com/vandanapadala-pg/hotcommands/config"
)

// WatchConfig ties a running engine to its config file: the file's current
// engine settings are applied immediately, and subsequent edits are picked up
// through the returned watcher. The caller owns the watcher and must Close it.
// One-shot CLI invocations skip this; it is for long-lived embedders.
func WatchConfig(path string, e *Engine) (*config.Watcher, error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	e.applyRuntime(cfg)

	w, err := config.NewWatcher(path)
	if err != nil {
		return nil, err
	}
	w.OnReload(func(cfg *config.Config) error {
		e.applyRuntime(cfg)
		return nil
	})
	w.Start()
	return w, nil
}

// applyRuntime pushes the reloadable subset of the config into the engine.
func (e *Engine) applyRuntime(cfg *config.Config) {
	e.Reconfigure(time.Duration(cfg.Engine.CacheTTLSeconds)*time.Second, cfg.Engine.Denylist)
}

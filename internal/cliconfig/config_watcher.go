package cliconfig

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/modelstation/pkg/log"
)

// debounceDelay coalesces the event bursts editors produce on save.
const debounceDelay = 100 * time.Millisecond

// ConfigWatcher monitors the config file via fsnotify and invokes a callback
// with the re-read file config after each change. Only runtime-safe settings
// (debug level, poll interval) should be applied from the callback; settings
// that identify what is being programmed stay fixed for the run.
type ConfigWatcher struct {
	path     string
	logger   log.Logger
	onChange func(FileConfig)

	mu       sync.Mutex
	debounce *time.Timer
}

// NewConfigWatcher creates a watcher for the given config file path.
func NewConfigWatcher(path string, logger log.Logger, onChange func(FileConfig)) *ConfigWatcher {
	return &ConfigWatcher{
		path:     path,
		logger:   logger,
		onChange: onChange,
	}
}

// Run watches the config file's directory until the context is canceled.
// A missing file or failed watcher setup disables watching but is not fatal;
// the run simply keeps its startup configuration.
func (w *ConfigWatcher) Run(ctx context.Context) {
	if w.path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("config watcher disabled", log.Err(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		w.logger.Warn("config watcher disabled",
			log.String("dir", filepath.Dir(w.path)),
			log.Err(err),
		)
		return
	}

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", log.Err(err))
		}
	}
}

func (w *ConfigWatcher) debounceReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceDelay, w.reload)
}

func (w *ConfigWatcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config reload failed",
			log.String("path", w.path),
			log.Err(err),
		)
		return
	}

	w.logger.Info("config file changed", log.String("path", w.path))
	w.onChange(fc)
}

package configfile

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/femavibes/feedmaster/pkg/logger"
)

// Watcher hot-reloads a JSON-encoded config file of type T, checking the
// file's mtime once per poll and swapping the in-memory value atomically
// on change. It never holds a lock across file I/O.
type Watcher[T any] struct {
	path    string
	logger  *logger.Logger
	current atomic.Pointer[T]
	modTime int64
}

// NewWatcher creates a Watcher, loading path immediately. fallback is
// used if the file is missing or invalid on first load.
func NewWatcher[T any](path string, fallback T, log *logger.Logger) *Watcher[T] {
	w := &Watcher[T]{path: path, logger: log.WithField("config_file", path)}
	w.current.Store(&fallback)
	w.CheckReload()
	return w
}

// Get returns the currently loaded value.
func (w *Watcher[T]) Get() T {
	return *w.current.Load()
}

// CheckReload stats the file and, if its mtime changed since the last
// successful load, reloads and validates it. An invalid file logs a
// warning and keeps serving the previous value.
func (w *Watcher[T]) CheckReload() {
	info, err := os.Stat(w.path)
	if err != nil {
		return // missing file: keep whatever is currently loaded
	}

	mtime := info.ModTime().UnixNano()
	if mtime == w.modTime {
		return
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.WithError(err).Warn("config reload: read failed, keeping previous value")
		return
	}

	var next T
	if err := json.Unmarshal(data, &next); err != nil {
		w.logger.WithError(err).Warn("config reload: invalid JSON, keeping previous value")
		return
	}

	if validator, ok := any(&next).(interface{ Validate() error }); ok {
		if err := validator.Validate(); err != nil {
			w.logger.WithError(fmt.Errorf("validate: %w", err)).Warn("config reload: validation failed, keeping previous value")
			return
		}
	}

	w.current.Store(&next)
	w.modTime = mtime
	w.logger.Info("config reloaded")
}

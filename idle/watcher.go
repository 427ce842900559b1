package idle

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Watcher logs the session out after a period without activity. Callers
// signal activity with Touch; the timer resets on every call.
type Watcher struct {
	timeout time.Duration
	onIdle  func()
	logger  *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func NewWatcher(timeout time.Duration, onIdle func(), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{timeout: timeout, onIdle: onIdle, logger: logger}
}

// Start arms the idle timer. A non-positive timeout disables the watcher.
func (w *Watcher) Start() {
	if w.timeout <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = false
	w.resetLocked()
}

// Touch records activity and pushes the idle deadline out.
func (w *Watcher) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.timer == nil {
		return
	}
	w.resetLocked()
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) resetLocked() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.timeout, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.timer = nil
	w.mu.Unlock()

	w.logger.Info("idle timeout reached, logging out")
	if w.onIdle != nil {
		w.onIdle()
	}
}

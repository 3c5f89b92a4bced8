package hooks

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Hook is a registered contribution owned by an extension.
type Hook interface {
	ID() string
	Type() string
	// Shutdown removes the hook from its point. A second call fails with
	// ErrHookNotRegistered.
	Shutdown() error
}

// Extension owns the hooks it registers and removes them all on Shutdown.
type Extension struct {
	id     string
	logger *zap.Logger

	mu    sync.Mutex
	hooks []Hook
	seq   int
}

// NewExtension creates an extension with no hooks.
func NewExtension(id string, logger *zap.Logger) *Extension {
	return &Extension{id: id, logger: logger}
}

// ID returns the extension ID.
func (e *Extension) ID() string {
	return e.id
}

func (e *Extension) nextHookID(hookType string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	return fmt.Sprintf("%s/%s#%d", e.id, hookType, e.seq)
}

func (e *Extension) attach(h Hook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = append(e.hooks, h)
}

func (e *Extension) detach(hookID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, h := range e.hooks {
		if h.ID() == hookID {
			e.hooks = append(e.hooks[:i], e.hooks[i+1:]...)
			return
		}
	}
}

// Hooks returns the extension's active hooks in registration order.
func (e *Extension) Hooks() []Hook {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Hook, len(e.hooks))
	copy(out, e.hooks)
	return out
}

// Shutdown shuts every hook down in reverse registration order and returns
// the first failure. Remaining hooks are still shut down after a failure.
func (e *Extension) Shutdown() error {
	hooks := e.Hooks()

	var firstErr error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].Shutdown(); err != nil {
			e.logger.Error("[Extension] Shutdown: hook failed to shut down",
				zap.String("extension", e.id),
				zap.String("hook", hooks[i].ID()),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

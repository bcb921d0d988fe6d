package wlmio

import "sync"

var (
	defaultMu     sync.Mutex
	defaultEngine *Engine
)

// Init constructs the process-wide default Engine, for callers that
// only ever need one instance per process.
func Init(cfg Config) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultEngine != nil {
		defaultEngine.Shutdown()
	}
	e, err := New(cfg)
	if err != nil {
		return err
	}
	defaultEngine = e
	return nil
}

// Default returns the process-wide Engine created by Init, or nil if
// Init has not been called.
func Default() *Engine {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultEngine
}

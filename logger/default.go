package logger

import (
	"fmt"
	"sync"

	"github.com/stjordanis/lager/core"
	"github.com/stjordanis/lager/handler"
	"github.com/stjordanis/lager/handler/consolehandler"
)

var (
	defaultCoordinator *Coordinator
	defaultMu          sync.RWMutex
)

func init() {
	// A coordinator with one console handler at info, so package-level
	// calls work without any setup.
	c, err := New(Options{
		Handlers: []HandlerSpec{{
			ID:      handler.ID{Type: "console"},
			Handler: consolehandler.New(consolehandler.ConsoleConfig{}),
		}},
	})
	if err != nil {
		panic(err)
	}
	defaultCoordinator = c
}

// Default returns the default coordinator.
func Default() *Coordinator {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultCoordinator
}

// SetDefault replaces the default coordinator. The previous one is not
// stopped; that is the caller's decision.
func SetDefault(c *Coordinator) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCoordinator = c
}

// Log emits a pre-rendered message through the default coordinator.
// The origin is captured here so it points at the caller, not at this
// wrapper.
func Log(level core.Level, callerID, msg string) {
	c := Default()
	if !c.enabled(level) {
		return
	}
	c.dispatch(level, core.CallerOrigin(1, callerID), core.CoarseNow(), msg)
}

// Logf emits a formatted message through the default coordinator.
func Logf(level core.Level, callerID, format string, args ...any) {
	c := Default()
	if !c.enabled(level) {
		return
	}
	c.dispatch(level, core.CallerOrigin(1, callerID), core.CoarseNow(), fmt.Sprintf(format, args...))
}

// SetLevel changes a handler's threshold on the default coordinator.
func SetLevel(id handler.ID, level core.Level) (core.Level, error) {
	return Default().SetLevel(id, level)
}

// GetLevel returns a handler's threshold on the default coordinator.
func GetLevel(id handler.ID) (core.Level, error) {
	return Default().GetLevel(id)
}

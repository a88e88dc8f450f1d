package logger

import (
	"fmt"
	"time"

	"github.com/stjordanis/lager/core"
)

// enabled is the hot-path gate: one atomic load, no allocation. Events
// below the aggregate minimum are dropped before any origin capture or
// formatting.
func (c *Coordinator) enabled(level core.Level) bool {
	if !level.Valid() || level == core.LevelOff {
		return false
	}
	if core.Compare(level, c.cache.Load()) < 0 {
		c.metrics.EventSuppressed()
		return false
	}
	return true
}

// dispatch builds the envelope and fans it out. Notify blocks until
// every handler has processed the event; the envelope is pooled, so it
// must not be retained past delivery.
func (c *Coordinator) dispatch(level core.Level, origin core.Origin, at time.Time, msg string) {
	e := core.GetEntry()
	e.Time = at
	e.Level = level
	e.Message = msg
	e.Origin = origin

	c.registry.Notify(e)
	c.metrics.EventDispatched(level)
	core.PutEntry(e)
}

// Log emits a pre-rendered message. Origin is captured from the call
// site and the timestamp from the coarse clock, both only after the
// gate passes. Logging never returns an error: with every handler down
// the aggregate minimum is off and the call is a cheap no-op.
func (c *Coordinator) Log(level core.Level, callerID, msg string) {
	if !c.enabled(level) {
		return
	}
	c.dispatch(level, core.CallerOrigin(1, callerID), core.CoarseNow(), msg)
}

// Logf emits a formatted message. The format expansion happens only
// after the gate passes.
func (c *Coordinator) Logf(level core.Level, callerID, format string, args ...any) {
	if !c.enabled(level) {
		return
	}
	c.dispatch(level, core.CallerOrigin(1, callerID), core.CoarseNow(), fmt.Sprintf(format, args...))
}

// LogWith emits a message with explicit origin and timestamp, for
// callers that captured location information themselves.
func (c *Coordinator) LogWith(level core.Level, origin core.Origin, at time.Time, msg string) {
	if !c.enabled(level) {
		return
	}
	c.dispatch(level, origin, at, msg)
}

// LogWithf is LogWith with deferred formatting.
func (c *Coordinator) LogWithf(level core.Level, origin core.Origin, at time.Time, format string, args ...any) {
	if !c.enabled(level) {
		return
	}
	c.dispatch(level, origin, at, fmt.Sprintf(format, args...))
}

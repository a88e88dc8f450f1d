package core

import "sync/atomic"

// LevelCache is the shared aggregate-minimum cell read on every log call.
// Reads are wait-free; the coordinator is the only writer. A reader racing
// a write observes either the previous or the new level, never a torn
// value.
type LevelCache struct {
	v atomic.Int32
}

// NewLevelCache returns a cache holding LevelOff, the aggregate minimum
// of an empty handler set.
func NewLevelCache() *LevelCache {
	c := &LevelCache{}
	c.v.Store(int32(LevelOff))
	return c
}

// Load returns the last fully-written aggregate minimum.
func (c *LevelCache) Load() Level {
	return Level(c.v.Load())
}

// Store publishes a new aggregate minimum. Single-writer: only the
// coordinator's control loop may call it.
func (c *LevelCache) Store(l Level) {
	c.v.Store(int32(l))
}

package handler

import (
	"fmt"
	"sync/atomic"

	"github.com/stjordanis/lager/core"
)

// AtomicThreshold is an embeddable per-handler minimum severity. Reads
// are a single atomic load so Handle can gate without locking; writes
// come through the coordinator.
type AtomicThreshold struct {
	v atomic.Int32
}

// StoreLevel sets the threshold without validation. Used by Init.
func (t *AtomicThreshold) StoreLevel(l core.Level) {
	t.v.Store(int32(l))
}

// SetThreshold validates and replaces the threshold, returning the
// previous value.
func (t *AtomicThreshold) SetThreshold(l core.Level) (core.Level, error) {
	if !l.Valid() {
		return t.Threshold(), fmt.Errorf("%w: %d", core.ErrInvalidLevel, l)
	}
	return core.Level(t.v.Swap(int32(l))), nil
}

// Threshold returns the current minimum severity.
func (t *AtomicThreshold) Threshold() core.Level {
	return core.Level(t.v.Load())
}

// Enabled reports whether an event at level l passes the threshold.
func (t *AtomicThreshold) Enabled(l core.Level) bool {
	return core.Compare(l, t.Threshold()) >= 0
}

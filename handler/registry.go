package handler

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/stjordanis/lager/core"
)

var (
	// ErrNotFound is returned when no handler with the given identity
	// is installed.
	ErrNotFound = errors.New("handler not found")
	// ErrAlreadyInstalled is returned when installing a handler under
	// an identity that is already taken.
	ErrAlreadyInstalled = errors.New("handler already installed")
)

// InitError wraps a handler's Init failure with its identity.
type InitError struct {
	ID  ID
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init handler %s: %v", e.ID, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Crash describes the abnormal termination of a handler during Handle.
type Crash struct {
	ID     ID
	Reason any
}

type member struct {
	id ID
	h  Handler
}

// Registry holds the ordered set of installed handlers and delivers
// envelopes to all of them synchronously, in installation order.
//
// One handler's failure is isolated: a panic inside Handle removes only
// that handler and is reported through the crash callback; siblings
// still receive the envelope and the caller of Notify never sees the
// failure. The envelope that caused the crash is not redelivered.
type Registry struct {
	mu      sync.RWMutex
	members []*member
	onCrash func(Crash)
}

// NewRegistry creates a registry. onCrash, if non-nil, is invoked from
// the crashing Notify call's goroutine; it must not block.
func NewRegistry(onCrash func(Crash)) *Registry {
	return &Registry{onCrash: onCrash}
}

// Install adds a handler under the given identity and runs its Init
// with the opaque args. Init failures are wrapped in an InitError and
// the handler is not added.
func (r *Registry) Install(id ID, h Handler, args Args) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.members {
		if m.id == id {
			return fmt.Errorf("%w: %s", ErrAlreadyInstalled, id)
		}
	}

	if err := h.Init(args); err != nil {
		return &InitError{ID: id, Err: err}
	}

	r.members = append(r.members, &member{id: id, h: h})
	return nil
}

// Uninstall removes a handler and terminates it. Removing an identity
// that is not installed is a no-op.
func (r *Registry) Uninstall(id ID) {
	r.mu.Lock()
	var victim *member
	for i, m := range r.members {
		if m.id == id {
			victim = m
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if victim != nil {
		_ = victim.h.Terminate()
	}
}

// Notify delivers the envelope to every installed handler, in
// installation order, and returns only after all of them have processed
// it. There is no buffering: the slowest handler is the latency floor
// for the caller.
func (r *Registry) Notify(entry *core.Entry) {
	r.mu.RLock()
	snapshot := make([]*member, len(r.members))
	copy(snapshot, r.members)
	r.mu.RUnlock()

	for _, m := range snapshot {
		r.deliver(m, entry)
	}
}

// deliver invokes one handler, converting a panic into a crash: the
// handler is dropped from the registry and the crash callback is told.
// An error return from Handle is a normal failure and is left to the
// handler's own accounting.
func (r *Registry) deliver(m *member, entry *core.Entry) {
	defer func() {
		if reason := recover(); reason != nil {
			r.drop(m.id)
			if r.onCrash != nil {
				r.onCrash(Crash{ID: m.id, Reason: reason})
			}
		}
	}()
	_ = m.h.Handle(entry)
}

// drop removes a crashed handler without terminating it; its state is
// considered unusable.
func (r *Registry) drop(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members {
		if m.id == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return
		}
	}
}

// SetThreshold routes a threshold change to the identified handler and
// returns the previous threshold.
func (r *Registry) SetThreshold(id ID, level core.Level) (core.Level, error) {
	h, ok := r.lookup(id)
	if !ok {
		return core.LevelOff, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return h.SetThreshold(level)
}

// GetThreshold returns the identified handler's current threshold.
func (r *Registry) GetThreshold(id ID) (core.Level, error) {
	h, ok := r.lookup(id)
	if !ok {
		return core.LevelOff, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return h.Threshold(), nil
}

// ListAlive returns the identities of all installed handlers in
// installation order.
func (r *Registry) ListAlive() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, len(r.members))
	for i, m := range r.members {
		ids[i] = m.id
	}
	return ids
}

// MinThreshold returns the least threshold over all installed handlers,
// or LevelOff when none are installed.
func (r *Registry) MinThreshold() core.Level {
	r.mu.RLock()
	defer r.mu.RUnlock()

	min := core.LevelOff
	for _, m := range r.members {
		if t := m.h.Threshold(); core.Compare(t, min) < 0 {
			min = t
		}
	}
	return min
}

// TerminateAll uninstalls every handler, combining termination errors.
func (r *Registry) TerminateAll() error {
	r.mu.Lock()
	members := r.members
	r.members = nil
	r.mu.Unlock()

	var err error
	for _, m := range members {
		err = multierr.Append(err, m.h.Terminate())
	}
	return err
}

func (r *Registry) lookup(id ID) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members {
		if m.id == id {
			return m.h, true
		}
	}
	return nil, false
}

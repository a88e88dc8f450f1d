package report

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Hub routes runtime error reports to its subscribed sinks. It is the
// in-process stand-in for the host runtime's error reporting facility:
// a coordinator can query the registered sinks, deregister all but one,
// and subscribe a sink exclusively.
//
// The sink list is read on every Publish, so reads go through an
// atomically published snapshot; the mutex only serializes updates.
type Hub struct {
	mu      sync.Mutex
	sinks   atomic.Value // holds []Sink, immutable for readers
	onCrash atomic.Value // holds func(sinkName string, reason any)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	h := &Hub{}
	h.sinks.Store(([]Sink)(nil))
	return h
}

// OnSinkCrash installs the callback invoked when a sink panics inside
// Consume. The panicking sink has already been deregistered when the
// callback runs. The callback must not block.
func (h *Hub) OnSinkCrash(fn func(sinkName string, reason any)) {
	h.onCrash.Store(fn)
}

// Subscribe adds a sink, replacing any existing sink with that name.
func (h *Hub) Subscribe(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.snapshot()
	next := make([]Sink, 0, len(cur)+1)
	for _, existing := range cur {
		if existing.Name() != s.Name() {
			next = append(next, existing)
		}
	}
	next = append(next, s)
	h.sinks.Store(next)
}

// SubscribeExclusive deregisters every other sink and subscribes s as
// the only consumer. It returns the names that were removed.
func (h *Hub) SubscribeExclusive(s Sink) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var removed []string
	for _, existing := range h.snapshot() {
		if existing.Name() != s.Name() {
			removed = append(removed, existing.Name())
		}
	}
	h.sinks.Store([]Sink{s})
	return removed
}

// Deregister removes the named sink and reports whether it was present.
func (h *Hub) Deregister(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.snapshot()
	next := make([]Sink, 0, len(cur))
	found := false
	for _, existing := range cur {
		if existing.Name() == name {
			found = true
			continue
		}
		next = append(next, existing)
	}
	if found {
		h.sinks.Store(next)
	}
	return found
}

// SinkNames returns the names of all subscribed sinks.
func (h *Hub) SinkNames() []string {
	var names []string
	for _, s := range h.snapshot() {
		names = append(names, s.Name())
	}
	return names
}

// Publish delivers the report to every subscribed sink, synchronously.
// A sink panicking is deregistered and reported via OnSinkCrash; the
// publisher never sees the panic.
func (h *Hub) Publish(r Report) {
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	for _, s := range h.snapshot() {
		h.consume(s, r)
	}
}

func (h *Hub) consume(s Sink, r Report) {
	defer func() {
		if reason := recover(); reason != nil {
			h.Deregister(s.Name())
			if fn, ok := h.onCrash.Load().(func(string, any)); ok && fn != nil {
				fn(s.Name(), reason)
			}
		}
	}()
	s.Consume(r)
}

// snapshot returns the current sink list. Callers must treat it as
// immutable.
func (h *Hub) snapshot() []Sink {
	v, _ := h.sinks.Load().([]Sink)
	return v
}

// Default is the process-wide hub. It starts with a stderr sink
// installed, mirroring a runtime's default error printer; coordinators
// typically tear that down when subscribing a bridge exclusively.
var Default = func() *Hub {
	h := NewHub()
	h.Subscribe(stderrSink{})
	return h
}()

// stderrSink is the fallback consumer printing reports to stderr.
type stderrSink struct{}

func (stderrSink) Name() string { return "stderr" }

func (stderrSink) Consume(r Report) {
	fmt.Fprintf(os.Stderr, "%s [runtime %s] %s\n", r.Time.Format(time.RFC3339), r.Kind, r.Render())
}

// Error publishes an error report to the default hub.
func Error(err error) {
	Default.Publish(Report{Kind: KindError, Err: err})
}

// Errorf publishes a formatted error report to the default hub.
func Errorf(format string, args ...any) {
	Default.Publish(Report{Kind: KindError, Text: fmt.Sprintf(format, args...)})
}

// Crashf publishes a crash report to the default hub.
func Crashf(format string, args ...any) {
	Default.Publish(Report{Kind: KindCrash, Text: fmt.Sprintf(format, args...)})
}

// Warningf publishes a warning report to the default hub.
func Warningf(format string, args ...any) {
	Default.Publish(Report{Kind: KindWarning, Text: fmt.Sprintf(format, args...)})
}

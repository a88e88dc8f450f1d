package logger

import (
	"sync"
	"testing"
	"time"

	"github.com/stjordanis/lager/core"
	"github.com/stjordanis/lager/handler"
)

// capturingHandler keeps full envelope copies.
type capturingHandler struct {
	handler.AtomicThreshold

	mu      sync.Mutex
	entries []core.Entry
}

func newCapturing() *capturingHandler {
	h := &capturingHandler{}
	h.StoreLevel(core.LevelDebug)
	return h
}

func (h *capturingHandler) Init(handler.Args) error { return nil }

func (h *capturingHandler) Handle(e *core.Entry) error {
	h.mu.Lock()
	h.entries = append(h.entries, *e)
	h.mu.Unlock()
	return nil
}

func (h *capturingHandler) Terminate() error { return nil }

func (h *capturingHandler) all() []core.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]core.Entry(nil), h.entries...)
}

func TestDispatch_LogCapturesCallSite(t *testing.T) {
	sink := newCapturing()
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "capture"}, Handler: sink},
	}})

	c.Log(core.LevelInfo, "worker-1", "hello")

	got := sink.all()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	e := got[0]
	if e.Level != core.LevelInfo || e.Message != "hello" {
		t.Fatalf("entry = %+v", e)
	}
	if !e.Origin.Defined {
		t.Fatal("expected origin to be captured")
	}
	if e.Origin.Module != "dispatch_test" {
		t.Errorf("origin module = %q, want dispatch_test", e.Origin.Module)
	}
	if e.Origin.Function != "TestDispatch_LogCapturesCallSite" {
		t.Errorf("origin function = %q", e.Origin.Function)
	}
	if e.Origin.CallerID != "worker-1" {
		t.Errorf("origin caller = %q, want worker-1", e.Origin.CallerID)
	}
	if e.Time.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestDispatch_LogfFormats(t *testing.T) {
	sink := newCapturing()
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "capture"}, Handler: sink},
	}})

	c.Logf(core.LevelNotice, "worker-2", "%d of %d done", 3, 5)

	got := sink.all()
	if len(got) != 1 || got[0].Message != "3 of 5 done" {
		t.Fatalf("entries = %+v", got)
	}
}

func TestDispatch_LogWithPassesOriginThrough(t *testing.T) {
	sink := newCapturing()
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "capture"}, Handler: sink},
	}})

	at := time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)
	origin := core.Origin{Module: "billing", Function: "Charge", Line: 42, CallerID: "req-9", Defined: true}
	c.LogWith(core.LevelError, origin, at, "card declined")
	c.LogWithf(core.LevelError, origin, at, "retry %d", 2)

	got := sink.all()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Origin != origin || !got[0].Time.Equal(at) {
		t.Fatalf("entry = %+v", got[0])
	}
	if got[1].Message != "retry 2" {
		t.Fatalf("message = %q", got[1].Message)
	}
}

func TestDispatch_InvalidLevelIsDropped(t *testing.T) {
	sink := newCapturing()
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "capture"}, Handler: sink},
	}})

	c.Log(core.Level(0), "test", "unset level")
	c.Log(core.LevelOff, "test", "off is a sentinel")
	c.Log(core.Level(99), "test", "out of range")

	if got := sink.all(); len(got) != 0 {
		t.Fatalf("expected no deliveries, got %+v", got)
	}
}

package logger

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stjordanis/lager/core"
	"github.com/stjordanis/lager/handler"
	"github.com/stjordanis/lager/handler/bridgehandler"
	"github.com/stjordanis/lager/report"
)

// fakeHandler counts deliveries and can be armed to fail Init.
type fakeHandler struct {
	handler.AtomicThreshold

	mu      sync.Mutex
	got     []string
	initErr error
	termed  bool
}

func newFake(threshold core.Level) *fakeHandler {
	f := &fakeHandler{}
	f.StoreLevel(threshold)
	return f
}

func (f *fakeHandler) Init(args handler.Args) error {
	if f.initErr != nil {
		return f.initErr
	}
	level, err := args.Level("level", f.Threshold())
	if err != nil {
		return err
	}
	f.StoreLevel(level)
	return nil
}

func (f *fakeHandler) Handle(entry *core.Entry) error {
	if !f.Enabled(entry.Level) {
		return nil
	}
	f.mu.Lock()
	f.got = append(f.got, entry.Message)
	f.mu.Unlock()
	return nil
}

func (f *fakeHandler) Terminate() error {
	f.termed = true
	return nil
}

func (f *fakeHandler) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.got))
	copy(out, f.got)
	return out
}

func mustNew(t *testing.T, opts Options) *Coordinator {
	t.Helper()
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Stop() })
	return c
}

// waitFor polls cond until it holds or the deadline passes. Crash
// handling runs in the control loop, so tests observing it have to
// wait for the loop to catch up.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestCoordinator_CacheIsMinOverAliveHandlers(t *testing.T) {
	strict := newFake(core.LevelError)
	loose := newFake(core.LevelDebug)
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "strict"}, Handler: strict},
		{ID: handler.ID{Type: "loose"}, Handler: loose},
	}})

	if got := c.EffectiveLevel(); got != core.LevelDebug {
		t.Fatalf("EffectiveLevel() = %s, want debug", got)
	}

	if err := c.Uninstall(handler.ID{Type: "loose"}); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	if got := c.EffectiveLevel(); got != core.LevelError {
		t.Fatalf("EffectiveLevel() after uninstall = %s, want error", got)
	}

	if err := c.Uninstall(handler.ID{Type: "strict"}); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	if got := c.EffectiveLevel(); got != core.LevelOff {
		t.Fatalf("EffectiveLevel() with no handlers = %s, want off", got)
	}
}

func TestCoordinator_GateSuppressesBelowMinimum(t *testing.T) {
	sink := newFake(core.LevelInfo)
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "sink"}, Handler: sink},
	}})

	c.Log(core.LevelDebug, "test", "filtered out")
	c.Log(core.LevelWarning, "test", "delivered")

	got := sink.messages()
	if len(got) != 1 || got[0] != "delivered" {
		t.Fatalf("messages = %v, want [delivered]", got)
	}
}

func TestCoordinator_SetLevelRecomputes(t *testing.T) {
	sink := newFake(core.LevelInfo)
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "sink"}, Handler: sink},
	}})

	prev, err := c.SetLevel(handler.ID{Type: "sink"}, core.LevelError)
	if err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	if prev != core.LevelInfo {
		t.Fatalf("SetLevel() previous = %s, want info", prev)
	}
	if got := c.EffectiveLevel(); got != core.LevelError {
		t.Fatalf("EffectiveLevel() = %s, want error", got)
	}

	level, err := c.GetLevel(handler.ID{Type: "sink"})
	if err != nil {
		t.Fatalf("GetLevel() error = %v", err)
	}
	if level != core.LevelError {
		t.Fatalf("GetLevel() = %s, want error", level)
	}
}

func TestCoordinator_FailedSetLevelStillRecomputes(t *testing.T) {
	sink := newFake(core.LevelNotice)
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "sink"}, Handler: sink},
	}})

	if _, err := c.SetLevel(handler.ID{Type: "ghost"}, core.LevelDebug); !errors.Is(err, handler.ErrNotFound) {
		t.Fatalf("SetLevel(ghost) error = %v, want ErrNotFound", err)
	}
	if got := c.EffectiveLevel(); got != core.LevelNotice {
		t.Fatalf("EffectiveLevel() after failed SetLevel = %s, want notice", got)
	}
}

func TestCoordinator_ConcurrentSetLevel(t *testing.T) {
	fixed := newFake(core.LevelNotice)
	tuned := newFake(core.LevelInfo)
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "fixed"}, Handler: fixed},
		{ID: handler.ID{Type: "tuned"}, Handler: tuned},
	}})

	levels := []core.Level{
		core.LevelDebug, core.LevelInfo, core.LevelWarning,
		core.LevelError, core.LevelCritical,
	}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(l core.Level) {
			defer wg.Done()
			if _, err := c.SetLevel(handler.ID{Type: "tuned"}, l); err != nil {
				t.Errorf("SetLevel(%s) error = %v", l, err)
			}
		}(levels[i%len(levels)])
	}
	wg.Wait()

	final, err := c.GetLevel(handler.ID{Type: "tuned"})
	if err != nil {
		t.Fatalf("GetLevel() error = %v", err)
	}
	want := final
	if core.Compare(core.LevelNotice, want) < 0 {
		want = core.LevelNotice
	}
	if got := c.EffectiveLevel(); got != want {
		t.Fatalf("EffectiveLevel() = %s, want %s (tuned=%s, fixed=notice)", got, want, final)
	}
}

func TestCoordinator_NonOptionalInitFailureAborts(t *testing.T) {
	ok := newFake(core.LevelInfo)
	broken := newFake(core.LevelInfo)
	broken.initErr = errors.New("disk on fire")

	_, err := New(Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "ok"}, Handler: ok},
		{ID: handler.ID{Type: "broken"}, Handler: broken},
	}})
	var initErr *handler.InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("New() error = %v, want InitError", err)
	}
	if !ok.termed {
		t.Fatal("expected previously installed handler to be terminated")
	}
}

func TestCoordinator_OptionalInitFailureIsSkipped(t *testing.T) {
	ok := newFake(core.LevelDebug)
	broken := newFake(core.LevelInfo)
	broken.initErr = errors.New("unreachable")

	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "ok"}, Handler: ok},
		{ID: handler.ID{Type: "broken"}, Handler: broken, Optional: true},
	}})

	ids, err := c.Handlers()
	if err != nil {
		t.Fatalf("Handlers() error = %v", err)
	}
	if len(ids) != 1 || ids[0].Type != "ok" {
		t.Fatalf("Handlers() = %v, want [ok]", ids)
	}

	waitFor(t, func() bool {
		for _, m := range ok.messages() {
			if strings.Contains(m, "failed to initialize") {
				return true
			}
		}
		return false
	})
}

// explodingErr panics when rendered, simulating a bridge crash while
// it converts a report.
type explodingErr struct{}

func (explodingErr) Error() string { panic("poisoned error value") }

func TestCoordinator_BridgeCrashIsLoggedAndRestarted(t *testing.T) {
	hub := report.NewHub()
	sink := newFake(core.LevelDebug)
	c := mustNew(t, Options{
		Handlers:     []HandlerSpec{{ID: handler.ID{Type: "sink"}, Handler: sink}},
		EnableBridge: true,
		Hub:          hub,
	})

	names := hub.SinkNames()
	if len(names) != 1 || names[0] != bridgehandler.SinkName {
		t.Fatalf("hub sinks after init = %v, want exclusive bridge", names)
	}

	hub.Publish(report.Report{Kind: report.KindError, Err: explodingErr{}})

	waitFor(t, func() bool {
		crashLogs := 0
		for _, m := range sink.messages() {
			if strings.Contains(m, "crashed") {
				crashLogs++
			}
		}
		if crashLogs != 1 {
			return false
		}
		names := hub.SinkNames()
		return len(names) == 1 && names[0] == bridgehandler.SinkName
	})

	hub.Publish(report.Report{Kind: report.KindError, Text: "back in business"})
	waitFor(t, func() bool {
		for _, m := range sink.messages() {
			if m == "back in business" {
				return true
			}
		}
		return false
	})

	if got := c.EffectiveLevel(); got != core.LevelDebug {
		t.Fatalf("EffectiveLevel() after restart = %s, want debug", got)
	}
}

func TestCoordinator_BridgeCrashDuringStartupIsCaught(t *testing.T) {
	hub := report.NewHub()
	sink := newFake(core.LevelDebug)

	// Hammer the hub with poisoned reports while the coordinator is
	// starting, so some land in the window between the bridge's
	// exclusive subscription and the end of New.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				hub.Publish(report.Report{Kind: report.KindError, Err: explodingErr{}})
			}
		}
	}()

	c := mustNew(t, Options{
		Handlers:     []HandlerSpec{{ID: handler.ID{Type: "sink"}, Handler: sink}},
		EnableBridge: true,
		Hub:          hub,
	})
	close(stop)
	wg.Wait()

	// Every crash, including any that hit during startup, must end
	// with the bridge resubscribed and converting reports again. The
	// marker report is republished each round because a publish landing
	// inside a pending restart window reaches no sink.
	waitFor(t, func() bool {
		names := hub.SinkNames()
		if len(names) != 1 || names[0] != bridgehandler.SinkName {
			return false
		}
		hub.Publish(report.Report{Kind: report.KindError, Text: "still bridged"})
		for _, m := range sink.messages() {
			if m == "still bridged" {
				return true
			}
		}
		return false
	})

	if got := c.EffectiveLevel(); got != core.LevelDebug {
		t.Fatalf("EffectiveLevel() after startup crashes = %s, want debug", got)
	}
}

func TestCoordinator_OtherHandlerCrashIsNotRestarted(t *testing.T) {
	sink := newFake(core.LevelDebug)
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "sink"}, Handler: sink},
		{ID: handler.ID{Type: "flaky"}, Handler: &panicky{}},
	}})

	c.Log(core.LevelInfo, "test", "trigger")

	waitFor(t, func() bool {
		ids, err := c.Handlers()
		if err != nil {
			return false
		}
		return len(ids) == 1 && ids[0].Type == "sink"
	})
	if got := c.EffectiveLevel(); got != core.LevelDebug {
		t.Fatalf("EffectiveLevel() after crash = %s, want debug", got)
	}

	waitFor(t, func() bool {
		for _, m := range sink.messages() {
			if strings.Contains(m, "flaky") && strings.Contains(m, "crashed") {
				return true
			}
		}
		return false
	})
}

// panicky crashes on every delivery.
type panicky struct {
	handler.AtomicThreshold
}

func (p *panicky) Init(handler.Args) error {
	p.StoreLevel(core.LevelDebug)
	return nil
}

func (p *panicky) Handle(*core.Entry) error { panic("handler bug") }
func (p *panicky) Terminate() error         { return nil }

func TestCoordinator_StopTerminatesEverything(t *testing.T) {
	sink := newFake(core.LevelInfo)
	c, err := New(Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "sink"}, Handler: sink},
	}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !sink.termed {
		t.Fatal("expected handler to be terminated")
	}
	if got := c.EffectiveLevel(); got != core.LevelOff {
		t.Fatalf("EffectiveLevel() after stop = %s, want off", got)
	}
	if _, err := c.SetLevel(handler.ID{Type: "sink"}, core.LevelDebug); !errors.Is(err, ErrStopped) {
		t.Fatalf("SetLevel() after stop error = %v, want ErrStopped", err)
	}

	// Dispatch after stop is a cheap no-op, not a panic.
	c.Log(core.LevelEmergency, "test", "into the void")
}

func TestCoordinator_ScenarioConsoleAtInfo(t *testing.T) {
	sink := newFake(core.LevelInfo)
	c := mustNew(t, Options{Handlers: []HandlerSpec{
		{ID: handler.ID{Type: "console"}, Handler: sink},
	}})

	c.Log(core.LevelDebug, "app", "invisible")
	if got := sink.messages(); len(got) != 0 {
		t.Fatalf("debug event reached handler: %v", got)
	}

	c.Log(core.LevelWarning, "app", "visible")
	got := sink.messages()
	if len(got) != 1 || got[0] != "visible" {
		t.Fatalf("messages = %v, want [visible]", got)
	}
}

package logger

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/stjordanis/lager/core"
	"github.com/stjordanis/lager/handler"
	"github.com/stjordanis/lager/handler/bridgehandler"
	"github.com/stjordanis/lager/metrics"
	"github.com/stjordanis/lager/report"
)

// ErrStopped is returned by configuration calls after Stop.
var ErrStopped = errors.New("coordinator stopped")

// BridgeID is the identity the error bridge is installed under.
var BridgeID = handler.ID{Type: "bridge"}

// crashBuffer bounds pending crash notifications. Sends are
// non-blocking so a crash observed while the loop is busy self-logging
// a previous crash cannot deadlock the dispatch path.
const crashBuffer = 32

// HandlerSpec names one handler to install, in order. Optional
// handlers that fail Init are skipped with a self-log instead of
// aborting startup.
type HandlerSpec struct {
	ID       handler.ID
	Handler  handler.Handler
	Args     handler.Args
	Optional bool
}

// Options configures a Coordinator.
type Options struct {
	Handlers []HandlerSpec

	// EnableBridge installs the error bridge and routes the hub's
	// reports exclusively through it.
	EnableBridge bool
	// BridgeLevel is the bridge's threshold; zero means error.
	BridgeLevel core.Level
	// Hub is the error-report hub to bridge; nil means report.Default.
	Hub *report.Hub

	// Metrics, when non-nil, receives dispatch and supervision counters.
	Metrics *metrics.Collector
}

// Coordinator owns the handler registry and the aggregate-minimum
// cache. One goroutine processes configuration requests and crash
// notifications strictly one at a time, so recomputations never
// interleave and the loop is the cache's only writer. Dispatch does
// not pass through the loop: it reads the cache and fans out from the
// caller's goroutine.
type Coordinator struct {
	registry *handler.Registry
	cache    *core.LevelCache
	hub      *report.Hub
	metrics  *metrics.Collector

	requests chan request
	crashes  chan handler.Crash
	done     chan struct{}

	bridgeArgs handler.Args

	metricsLn  net.Listener
	metricsSrv *http.Server
}

type request struct {
	apply func()
	reply chan struct{}
}

// New installs the configured handlers in order, publishes the initial
// aggregate minimum, and starts the control loop. A non-optional
// handler's Init failure aborts startup and terminates whatever was
// already installed.
func New(opts Options) (*Coordinator, error) {
	core.StartCoarseClock()

	hub := opts.Hub
	if hub == nil {
		hub = report.Default
	}

	c := &Coordinator{
		cache:    core.NewLevelCache(),
		hub:      hub,
		metrics:  opts.Metrics,
		requests: make(chan request),
		crashes:  make(chan handler.Crash, crashBuffer),
		done:     make(chan struct{}),
	}
	c.registry = handler.NewRegistry(c.notifyCrash)

	var skipped []HandlerSpec
	for _, spec := range opts.Handlers {
		if err := c.registry.Install(spec.ID, spec.Handler, spec.Args); err != nil {
			if !spec.Optional {
				_ = c.registry.TerminateAll()
				return nil, err
			}
			skipped = append(skipped, spec)
		}
	}

	if opts.EnableBridge {
		c.bridgeArgs = handler.Args{}
		if opts.BridgeLevel != 0 {
			c.bridgeArgs["level"] = opts.BridgeLevel.String()
		}
		// A panic inside the bridge's Consume happens on the hub side
		// of the bridge, outside any Notify call; fold it into the same
		// crash stream the registry reports on. The callback must be in
		// place before the bridge subscribes, or a crash during startup
		// would deregister it silently.
		hub.OnSinkCrash(func(name string, reason any) {
			if name == bridgehandler.SinkName {
				c.notifyCrash(handler.Crash{ID: BridgeID, Reason: reason})
			}
		})
		if err := c.installBridge(); err != nil {
			_ = c.registry.TerminateAll()
			return nil, err
		}
	}

	c.recompute()
	go c.run()

	for _, spec := range skipped {
		c.selfLogf(core.LevelError, "handler %s failed to initialize, skipping", spec.ID)
	}
	return c, nil
}

// installBridge builds a fresh bridge over the hub and installs it with
// the original arguments. Init subscribes it as the hub's exclusive
// sink.
func (c *Coordinator) installBridge() error {
	b := bridgehandler.New(c.hub, c.emit)
	return c.registry.Install(BridgeID, b, c.bridgeArgs)
}

// emit is the bridge's path back into the log stream.
func (c *Coordinator) emit(level core.Level, origin core.Origin, at time.Time, msg string) {
	if !c.enabled(level) {
		return
	}
	c.dispatch(level, origin, at, msg)
}

func (c *Coordinator) notifyCrash(crash handler.Crash) {
	select {
	case c.crashes <- crash:
	default:
	}
}

func (c *Coordinator) run() {
	for {
		select {
		case req := <-c.requests:
			req.apply()
			close(req.reply)
		case crash := <-c.crashes:
			c.handleCrash(crash)
		case <-c.done:
			return
		}
	}
}

// do runs fn inside the control loop and waits for it to finish.
func (c *Coordinator) do(fn func()) error {
	req := request{apply: fn, reply: make(chan struct{})}
	select {
	case c.requests <- req:
		<-req.reply
		return nil
	case <-c.done:
		return ErrStopped
	}
}

// handleCrash self-logs the crash and applies the restart policy: the
// bridge is reinstalled with its original arguments, every other
// handler stays down. Either way the aggregate minimum is recomputed
// so the cache never reflects a dead handler's threshold.
func (c *Coordinator) handleCrash(crash handler.Crash) {
	c.metrics.HandlerCrashed(crash.ID.String())
	c.recompute()
	c.selfLogf(core.LevelCritical, "handler %s crashed: %v", crash.ID, crash.Reason)

	if crash.ID != BridgeID {
		return
	}
	// The hub-side crash path deregisters the sink but leaves the
	// registry entry behind; clear it before reinstalling.
	c.registry.Uninstall(BridgeID)
	if err := c.installBridge(); err != nil {
		c.selfLogf(core.LevelCritical, "bridge reinstall failed: %v", err)
	} else {
		c.metrics.BridgeRestarted()
	}
	c.recompute()
}

// recompute publishes min(threshold over alive handlers), or off when
// none are installed. Only the control loop (and New, before the loop
// starts) calls it.
func (c *Coordinator) recompute() {
	c.cache.Store(c.registry.MinThreshold())
	c.metrics.SetHandlersAlive(len(c.registry.ListAlive()))
}

// SetLevel changes one handler's threshold and returns the previous
// value. The aggregate minimum is recomputed even when the change
// fails, so the cache always reflects the registry's current state.
func (c *Coordinator) SetLevel(id handler.ID, level core.Level) (core.Level, error) {
	var prev core.Level
	var err error
	doErr := c.do(func() {
		prev, err = c.registry.SetThreshold(id, level)
		c.recompute()
	})
	if doErr != nil {
		return core.LevelOff, doErr
	}
	return prev, err
}

// GetLevel returns one handler's current threshold.
func (c *Coordinator) GetLevel(id handler.ID) (core.Level, error) {
	var level core.Level
	var err error
	doErr := c.do(func() {
		level, err = c.registry.GetThreshold(id)
	})
	if doErr != nil {
		return core.LevelOff, doErr
	}
	return level, err
}

// Install adds a handler at runtime.
func (c *Coordinator) Install(id handler.ID, h handler.Handler, args handler.Args) error {
	var err error
	doErr := c.do(func() {
		err = c.registry.Install(id, h, args)
		c.recompute()
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// Uninstall removes a handler at runtime. Unknown identities are a
// no-op, as in the registry.
func (c *Coordinator) Uninstall(id handler.ID) error {
	return c.do(func() {
		c.registry.Uninstall(id)
		c.recompute()
	})
}

// Handlers returns the identities of all installed handlers in
// installation order.
func (c *Coordinator) Handlers() ([]handler.ID, error) {
	var ids []handler.ID
	err := c.do(func() {
		ids = c.registry.ListAlive()
	})
	return ids, err
}

// EffectiveLevel returns the current aggregate minimum.
func (c *Coordinator) EffectiveLevel() core.Level {
	return c.cache.Load()
}

// Metrics returns the coordinator's collector, nil when metrics are
// disabled.
func (c *Coordinator) Metrics() *metrics.Collector {
	return c.metrics
}

// ServeMetrics exposes the collector at /metrics on the given address.
// The server lives until Stop. Must be called before the coordinator
// is shared across goroutines; FromConfig does this when the
// configuration enables metrics.
func (c *Coordinator) ServeMetrics(addr string) error {
	if c.metrics == nil {
		return errors.New("metrics not enabled")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.metrics.Handler())
	c.metricsLn = ln
	c.metricsSrv = &http.Server{Handler: mux}
	go func() { _ = c.metricsSrv.Serve(ln) }()
	return nil
}

// MetricsAddr returns the bound metrics address, empty when no metrics
// server is running. Useful when the configured address had port 0.
func (c *Coordinator) MetricsAddr() string {
	if c.metricsLn == nil {
		return ""
	}
	return c.metricsLn.Addr().String()
}

// Stop terminates all handlers and shuts the control loop down.
// Configuration calls after Stop return ErrStopped; dispatch calls
// become cheap no-ops because the cache reads off.
func (c *Coordinator) Stop() error {
	var err error
	doErr := c.do(func() {
		err = c.registry.TerminateAll()
		c.recompute()
		close(c.done)
	})
	if doErr != nil {
		return doErr
	}
	if c.metricsSrv != nil {
		err = multierr.Append(err, c.metricsSrv.Close())
	}
	return err
}

// selfLogf pushes one of the coordinator's own events through the
// regular dispatch path, subject to the same gate as any caller.
func (c *Coordinator) selfLogf(level core.Level, format string, args ...any) {
	if !c.enabled(level) {
		return
	}
	origin := core.Origin{
		Module:   "lager",
		Function: "coordinator",
		CallerID: "coordinator",
		Defined:  true,
	}
	c.dispatch(level, origin, time.Now(), fmt.Sprintf(format, args...))
}

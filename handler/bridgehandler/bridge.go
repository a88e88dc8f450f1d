package bridgehandler

import (
	"time"

	"github.com/stjordanis/lager/core"
	"github.com/stjordanis/lager/handler"
	"github.com/stjordanis/lager/report"
)

// SinkName is the name the bridge subscribes under on its hub.
const SinkName = "lager-bridge"

// EmitFunc republishes a converted report into the log stream. The
// coordinator passes its own dispatch here.
type EmitFunc func(level core.Level, origin core.Origin, at time.Time, msg string)

// BridgeHandler converts the runtime's error reports into log events.
// Its input side is a report.Hub subscription; its registry membership
// exists for supervision and threshold accounting, so Handle on bus
// events is a no-op (the bridge is a source, not a sink — consuming
// its own output would loop).
type BridgeHandler struct {
	handler.AtomicThreshold

	hub  *report.Hub
	emit EmitFunc
}

// New creates a bridge over the given hub. The exclusive hub
// subscription happens in Init.
func New(hub *report.Hub, emit EmitFunc) *BridgeHandler {
	b := &BridgeHandler{hub: hub, emit: emit}
	b.StoreLevel(core.LevelError)
	return b
}

// Init applies opaque install arguments and subscribes the bridge as
// the hub's only sink, tearing down whatever default reporting sinks
// were installed there. Recognized keys:
//
//	level: minimum mapped severity to republish (default: error)
func (b *BridgeHandler) Init(args handler.Args) error {
	level, err := args.Level("level", b.Threshold())
	if err != nil {
		return err
	}
	b.StoreLevel(level)

	b.hub.SubscribeExclusive(b)
	return nil
}

// Name implements report.Sink.
func (b *BridgeHandler) Name() string { return SinkName }

// Consume implements report.Sink: map the report to a severity, gate
// on the bridge's threshold, and republish as a log event.
func (b *BridgeHandler) Consume(r report.Report) {
	level := levelFor(r.Kind)
	if !b.Enabled(level) {
		return
	}
	origin := core.Origin{
		Module:   "runtime",
		Function: r.Kind.String(),
		CallerID: SinkName,
		Defined:  true,
	}
	b.emit(level, origin, r.Time, r.Render())
}

// Handle implements handler.Handler. Bus events are not consumed.
func (b *BridgeHandler) Handle(*core.Entry) error {
	return nil
}

// Terminate drops the hub subscription.
func (b *BridgeHandler) Terminate() error {
	b.hub.Deregister(SinkName)
	return nil
}

func levelFor(k report.Kind) core.Level {
	switch k {
	case report.KindCrash:
		return core.LevelCritical
	case report.KindWarning:
		return core.LevelWarning
	default:
		return core.LevelError
	}
}

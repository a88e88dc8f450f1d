package zerologhandler

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/stjordanis/lager/core"
	"github.com/stjordanis/lager/handler"
)

// ZerologConfig holds configuration for the zerolog-backed handler
type ZerologConfig struct {
	// Writer receives the JSON lines (default: os.Stderr)
	Writer io.Writer
	// Level is the initial threshold (default: info)
	Level core.Level
}

// ZerologHandler delegates envelopes to a zerolog.Logger. As with the
// zap handler, the lager threshold is authoritative and the backing
// logger is left wide open.
type ZerologHandler struct {
	handler.AtomicThreshold

	logger zerolog.Logger
	stats  *handler.Stats
	writer io.Writer
}

// New creates a zerolog-backed handler from explicit configuration.
func New(cfg ZerologConfig) *ZerologHandler {
	h := &ZerologHandler{writer: cfg.Writer, stats: handler.NewStats()}
	level := cfg.Level
	if level == 0 {
		level = core.LevelInfo
	}
	h.StoreLevel(level)
	return h
}

// Init applies opaque install arguments. Recognized keys:
//
//	target: "stderr" (default), "stdout"
//	level: initial threshold name
func (h *ZerologHandler) Init(args handler.Args) error {
	level, err := args.Level("level", h.Threshold())
	if err != nil {
		return err
	}
	h.StoreLevel(level)

	if h.writer == nil {
		switch args.Str("target", "stderr") {
		case "stdout":
			h.writer = os.Stdout
		default:
			h.writer = os.Stderr
		}
	}
	h.logger = zerolog.New(h.writer)
	return nil
}

// Handle maps the envelope onto the backing zerolog logger.
func (h *ZerologHandler) Handle(entry *core.Entry) error {
	if !h.Enabled(entry.Level) {
		h.stats.IncrementFiltered()
		return nil
	}

	ev := h.logger.WithLevel(toZerologLevel(entry.Level)).
		Time("ts", entry.Time).
		Str("severity", entry.Level.String())
	if entry.Origin.Defined {
		ev = ev.
			Str("module", entry.Origin.Module).
			Str("function", entry.Origin.Function).
			Int("line", entry.Origin.Line)
	}
	if entry.Origin.CallerID != "" {
		ev = ev.Str("caller_id", entry.Origin.CallerID)
	}
	ev.Msg(entry.Message)

	h.stats.IncrementProcessed()
	return nil
}

// Terminate implements handler.Handler. zerolog writes through
// unbuffered, so there is nothing to flush.
func (h *ZerologHandler) Terminate() error {
	return nil
}

// Stats returns the handler's counters
func (h *ZerologHandler) Stats() *handler.Stats {
	return h.stats
}

// toZerologLevel maps lager severities onto zerolog's level set.
// Fatal and Panic are avoided for the same reason as in the zap
// handler: a sink must not kill the process.
func toZerologLevel(l core.Level) zerolog.Level {
	switch l {
	case core.LevelDebug:
		return zerolog.DebugLevel
	case core.LevelInfo, core.LevelNotice:
		return zerolog.InfoLevel
	case core.LevelWarning:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

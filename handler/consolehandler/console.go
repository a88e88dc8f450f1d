package consolehandler

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/stjordanis/lager/core"
	"github.com/stjordanis/lager/formatter"
	"github.com/stjordanis/lager/handler"
)

// ConsoleConfig holds configuration for the console handler
type ConsoleConfig struct {
	// Writer to write to (default: os.Stdout)
	Writer io.Writer
	// Formatter to use (default: TextFormatter)
	Formatter formatter.Formatter
	// Level is the initial threshold (default: info)
	Level core.Level
}

// ConsoleHandler writes formatted envelopes to an io.Writer. Writes are
// serialized under a single mutex; delivery is synchronous, so by the
// time Handle returns the line has been handed to the writer.
type ConsoleHandler struct {
	handler.AtomicThreshold

	mu        sync.Mutex
	writer    io.Writer
	fmtr      formatter.Formatter
	bufFmtr   formatter.BufferFormatter // cached when the formatter supports it
	wrFmtr    formatter.WriterFormatter // next best: format straight into the writer
	syncBuf   bytes.Buffer
	stats     *handler.Stats
	hasWriter bool // construction-time writer wins over init args
}

// New creates a console handler from explicit configuration.
func New(cfg ConsoleConfig) *ConsoleHandler {
	h := &ConsoleHandler{
		writer:    cfg.Writer,
		fmtr:      cfg.Formatter,
		stats:     handler.NewStats(),
		hasWriter: cfg.Writer != nil,
	}
	level := cfg.Level
	if level == 0 {
		level = core.LevelInfo
	}
	h.StoreLevel(level)
	h.syncBuf.Grow(256)
	return h
}

// Init applies opaque install arguments. Recognized keys:
//
//	target: "stdout" (default), "stderr", "discard"
//	format: "text" (default), "json"
//	timestamp_format: Go time layout
//	level: initial threshold name
func (h *ConsoleHandler) Init(args handler.Args) error {
	if !h.hasWriter {
		switch target := args.Str("target", "stdout"); target {
		case "stdout":
			h.writer = os.Stdout
		case "stderr":
			h.writer = os.Stderr
		case "discard":
			h.writer = io.Discard
		default:
			return fmt.Errorf("unknown console target %q", target)
		}
	}

	if h.fmtr == nil {
		cfg := formatter.Config{TimestampFormat: args.Str("timestamp_format", "")}
		switch format := args.Str("format", "text"); format {
		case "text":
			h.fmtr = formatter.NewTextFormatter(cfg)
		case "json":
			h.fmtr = formatter.NewJSONFormatter(cfg)
		default:
			return fmt.Errorf("unknown console format %q", format)
		}
	}
	h.bufFmtr, _ = h.fmtr.(formatter.BufferFormatter)
	h.wrFmtr, _ = h.fmtr.(formatter.WriterFormatter)

	level, err := args.Level("level", h.Threshold())
	if err != nil {
		return err
	}
	h.StoreLevel(level)
	return nil
}

// Handle formats and writes one envelope if it passes the threshold.
func (h *ConsoleHandler) Handle(entry *core.Entry) error {
	if !h.Enabled(entry.Level) {
		h.stats.IncrementFiltered()
		return nil
	}

	if h.bufFmtr != nil {
		h.mu.Lock()
		h.syncBuf.Reset()
		h.bufFmtr.FormatEntry(entry, &h.syncBuf)
		_, err := h.writer.Write(h.syncBuf.Bytes())
		h.mu.Unlock()
		h.count(err)
		return err
	}

	if h.wrFmtr != nil {
		h.mu.Lock()
		err := h.wrFmtr.FormatTo(entry, h.writer)
		h.mu.Unlock()
		h.count(err)
		return err
	}

	data, err := h.fmtr.Format(entry)
	if err != nil {
		h.stats.IncrementFailed()
		return err
	}
	h.mu.Lock()
	_, err = h.writer.Write(data)
	h.mu.Unlock()
	h.count(err)
	return err
}

func (h *ConsoleHandler) count(err error) {
	if err == nil {
		h.stats.IncrementProcessed()
	} else {
		h.stats.IncrementFailed()
	}
}

// Terminate implements handler.Handler. Console writers are not owned
// by the handler, so there is nothing to release.
func (h *ConsoleHandler) Terminate() error {
	return nil
}

// Stats returns the handler's counters
func (h *ConsoleHandler) Stats() *handler.Stats {
	return h.stats
}

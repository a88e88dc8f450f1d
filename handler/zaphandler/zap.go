package zaphandler

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stjordanis/lager/core"
	"github.com/stjordanis/lager/handler"
)

// ZapConfig holds configuration for the zap-backed handler
type ZapConfig struct {
	// Logger is the backing zap logger (default: production config to stderr)
	Logger *zap.Logger
	// Level is the initial threshold (default: info)
	Level core.Level
}

// ZapHandler delegates envelopes to a zap.Logger. The lager threshold
// is authoritative; the backing logger is built wide open so the
// handler's own gate decides what reaches it.
type ZapHandler struct {
	handler.AtomicThreshold

	logger *zap.Logger
	stats  *handler.Stats
}

// New creates a zap-backed handler from explicit configuration.
func New(cfg ZapConfig) *ZapHandler {
	h := &ZapHandler{logger: cfg.Logger, stats: handler.NewStats()}
	level := cfg.Level
	if level == 0 {
		level = core.LevelInfo
	}
	h.StoreLevel(level)
	return h
}

// Init applies opaque install arguments. Recognized keys:
//
//	encoding: "json" (default), "console"
//	path: output path (default: "stderr")
//	level: initial threshold name
func (h *ZapHandler) Init(args handler.Args) error {
	level, err := args.Level("level", h.Threshold())
	if err != nil {
		return err
	}
	h.StoreLevel(level)

	if h.logger != nil {
		return nil
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	zcfg.Encoding = args.Str("encoding", "json")
	zcfg.OutputPaths = []string{args.Str("path", "stderr")}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return err
	}
	h.logger = logger
	return nil
}

// Handle maps the envelope onto the backing zap logger.
func (h *ZapHandler) Handle(entry *core.Entry) error {
	if !h.Enabled(entry.Level) {
		h.stats.IncrementFiltered()
		return nil
	}

	// Check avoids building fields when the backend filters the level.
	ce := h.logger.Check(toZapLevel(entry.Level), entry.Message)
	if ce == nil {
		h.stats.IncrementFiltered()
		return nil
	}

	fields := make([]zap.Field, 0, 5)
	fields = append(fields, zap.Time("ts", entry.Time), zap.String("severity", entry.Level.String()))
	if entry.Origin.Defined {
		fields = append(fields,
			zap.String("module", entry.Origin.Module),
			zap.String("function", entry.Origin.Function),
			zap.Int("line", entry.Origin.Line),
		)
	}
	if entry.Origin.CallerID != "" {
		fields = append(fields, zap.String("caller_id", entry.Origin.CallerID))
	}
	ce.Write(fields...)

	h.stats.IncrementProcessed()
	return nil
}

// Terminate flushes the backing logger. Sync errors on stderr are
// expected on some platforms and ignored.
func (h *ZapHandler) Terminate() error {
	if h.logger != nil {
		_ = h.logger.Sync()
	}
	return nil
}

// Stats returns the handler's counters
func (h *ZapHandler) Stats() *handler.Stats {
	return h.stats
}

// toZapLevel maps lager severities onto zap's smaller level set.
// Everything above error collapses to Error: zap's Fatal and Panic
// have process-killing side effects a log sink must not trigger.
func toZapLevel(l core.Level) zapcore.Level {
	switch l {
	case core.LevelDebug:
		return zapcore.DebugLevel
	case core.LevelInfo, core.LevelNotice:
		return zapcore.InfoLevel
	case core.LevelWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

package logger

import (
	"fmt"
	"sync"

	"github.com/stjordanis/lager/config"
	"github.com/stjordanis/lager/core"
	"github.com/stjordanis/lager/handler"
	"github.com/stjordanis/lager/handler/consolehandler"
	"github.com/stjordanis/lager/handler/filehandler"
	"github.com/stjordanis/lager/handler/zaphandler"
	"github.com/stjordanis/lager/handler/zerologhandler"
	"github.com/stjordanis/lager/metrics"
)

// Factory builds an uninitialized handler; configuration reaches it
// through Init's opaque args.
type Factory func() handler.Handler

var (
	factoryMu sync.RWMutex
	factories = map[string]Factory{
		"console": func() handler.Handler { return consolehandler.New(consolehandler.ConsoleConfig{}) },
		"file":    func() handler.Handler { return filehandler.New(filehandler.FileConfig{}) },
		"zap":     func() handler.Handler { return zaphandler.New(zaphandler.ZapConfig{}) },
		"zerolog": func() handler.Handler { return zerologhandler.New(zerologhandler.ZerologConfig{}) },
	}
)

// RegisterHandlerType makes a handler type available to FromConfig
// under the given name, replacing any previous registration.
func RegisterHandlerType(name string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = f
}

func factoryFor(name string) (Factory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// FromConfig builds and starts a coordinator from a parsed
// configuration. Handler options are passed through to each handler's
// Init untouched, with the configured level folded in.
func FromConfig(cfg *config.Config) (*Coordinator, error) {
	opts := Options{}

	for i, hc := range cfg.Handlers {
		f, ok := factoryFor(hc.Type)
		if !ok {
			return nil, fmt.Errorf("handler[%d]: unknown type %q", i, hc.Type)
		}
		args := make(handler.Args, len(hc.Options)+1)
		for k, v := range hc.Options {
			args[k] = v
		}
		if _, set := args["level"]; !set && hc.Level != "" {
			args["level"] = hc.Level
		}
		opts.Handlers = append(opts.Handlers, HandlerSpec{
			ID:       handler.ID{Type: hc.Type, Discriminator: hc.Discriminator},
			Handler:  f(),
			Args:     args,
			Optional: hc.Optional,
		})
	}

	if cfg.ErrorBridge.Enabled {
		opts.EnableBridge = true
		if cfg.ErrorBridge.Level != "" {
			level, err := core.ParseLevel(cfg.ErrorBridge.Level)
			if err != nil {
				return nil, fmt.Errorf("error_bridge.level: %w", err)
			}
			opts.BridgeLevel = level
		}
	}

	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.NewCollector()
	}

	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	if cfg.Metrics.Enabled {
		if err := c.ServeMetrics(cfg.Metrics.Listen); err != nil {
			_ = c.Stop()
			return nil, err
		}
	}
	return c, nil
}

// Package logger is the public API of lager. Most users only need to
// import this package.
//
// A Coordinator owns a set of handlers and a shared aggregate-minimum
// level: the least threshold among all installed handlers. Every log
// call checks that single value first, so events no handler would
// accept cost one atomic load and nothing else — no origin capture,
// no formatting, no allocation.
//
// Events that pass the gate fan out to every handler synchronously, in
// installation order; the call returns only after the last handler has
// seen the event. There is no buffering layer, so a slow handler slows
// every caller. A handler that panics is removed and reported, never
// retried; the other handlers and the caller are unaffected.
//
// The package initializes a default Coordinator (one console handler
// at info) in init(), so simple programs can log without any setup:
//
//	logger.Logf(core.LevelInfo, "server", "listening on %s", addr)
//
// For custom configuration, build Options by hand or load a YAML file:
//
//	cfg, err := config.Load(path)
//	...
//	coord, err := logger.FromConfig(cfg)
//
// The optional error bridge republishes the process's runtime error
// reports as regular log events. It is the one handler the Coordinator
// supervises: if it crashes, the Coordinator self-logs the reason and
// reinstalls it with its original arguments.
package logger

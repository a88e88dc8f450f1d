// Package handler defines the sink contract and the registry that
// fans log envelopes out to every installed sink.
//
// A Handler is installed under an ID (a type name plus an optional
// discriminator, so two file sinks writing different paths can
// coexist) and receives opaque init arguments passed through from
// configuration. Each handler owns its minimum severity: the
// embeddable AtomicThreshold type gives it an atomic, lock-free gate that
// Handle checks before doing any formatting work.
//
// The Registry's Notify is synchronous and ordered: the envelope is
// offered to every handler in installation order and the call returns
// only when all of them are done. There is deliberately no queueing
// layer between callers and sinks, so a slow sink slows every log
// call. Crash isolation is the registry's job: a panic inside Handle
// removes that handler alone, reports it via the crash callback, and
// never reaches the logging caller or sibling handlers.
//
// Built-in handlers live in subpackages:
//
//   - consolehandler writes formatted envelopes to any io.Writer.
//   - filehandler writes to a file with size-based rotation.
//   - zaphandler and zerologhandler delegate to a zap or zerolog
//     backend.
//   - bridgehandler republishes runtime error reports as log events.
//
// All of them track processed, filtered, and failed counts via the
// Stats type, which can be queried at runtime for monitoring.
package handler

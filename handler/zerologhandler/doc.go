// Package zerologhandler adapts a github.com/rs/zerolog logger into a
// lager sink, emitting one JSON line per envelope.
package zerologhandler

// Package consolehandler provides the console sink: formatted log
// envelopes written synchronously to any io.Writer (default:
// os.Stdout).
//
// The handler holds a single mutex around the format-and-write step so
// concurrent deliveries never interleave within a line. Its threshold
// is checked before any formatting, so filtered envelopes cost one
// atomic load.
package consolehandler

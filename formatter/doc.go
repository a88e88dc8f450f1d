// Package formatter defines how log envelopes are serialized into bytes.
//
// It exposes three interfaces: Formatter, which returns a []byte,
// WriterFormatter, which writes directly to an io.Writer, and
// BufferFormatter, which formats into a caller-provided buffer. Sinks
// check for BufferFormatter at construction time and prefer it when
// available, eliminating the intermediate byte slice allocation on
// the write path.
//
// Both built-in formatters (TextFormatter and JSONFormatter) implement
// all three. They use a pooled bytes.Buffer internally and rely on
// Go's Append-style functions (time.AppendFormat, strconv.Itoa) to
// keep per-call allocations down. The TextFormatter additionally
// pre-computes level bracket strings (" [info] ", etc.) so that the
// most common path is a single WriteString call.
//
// Buffers larger than 64 KiB are not returned to the pool to prevent
// a single large log line from permanently inflating memory usage.
package formatter

package formatter

import (
	"bytes"
	"io"
	"strconv"
	"time"

	"github.com/stjordanis/lager/core"
)

// TextFormatter formats log entries as human-readable text
type TextFormatter struct {
	Config
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(cfg Config) *TextFormatter {
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = time.RFC3339
	}
	return &TextFormatter{Config: cfg}
}

// Format formats an entry as text
func (f *TextFormatter) Format(entry *core.Entry) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	f.formatToBuffer(entry, buf)

	// Copy buffer content to return
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// FormatTo formats an entry and writes it directly to the writer
func (f *TextFormatter) FormatTo(entry *core.Entry, w io.Writer) error {
	buf := getBuffer()

	f.formatToBuffer(entry, buf)

	_, err := w.Write(buf.Bytes())
	putBuffer(buf)
	return err
}

// FormatEntry formats an entry into the given buffer (implements BufferFormatter).
func (f *TextFormatter) FormatEntry(entry *core.Entry, buf *bytes.Buffer) {
	f.formatToBuffer(entry, buf)
}

// pre-formatted level strings to avoid multiple WriteString calls
var levelBrackets = [...]string{
	core.LevelDebug:     " [debug] ",
	core.LevelInfo:      " [info] ",
	core.LevelNotice:    " [notice] ",
	core.LevelWarning:   " [warning] ",
	core.LevelError:     " [error] ",
	core.LevelCritical:  " [critical] ",
	core.LevelAlert:     " [alert] ",
	core.LevelEmergency: " [emergency] ",
}

// formatToBuffer writes the formatted entry into the given buffer
func (f *TextFormatter) formatToBuffer(entry *core.Entry, buf *bytes.Buffer) {
	// Timestamp - use AppendFormat to avoid string allocation
	buf.Write(entry.Time.AppendFormat(buf.AvailableBuffer(), f.TimestampFormat))

	// Level - use pre-formatted string
	if int(entry.Level) < len(levelBrackets) {
		buf.WriteString(levelBrackets[entry.Level])
	} else {
		buf.WriteString(" [unknown] ")
	}

	if !f.OmitOrigin && entry.Origin.Defined {
		buf.WriteString(entry.Origin.Module)
		buf.WriteByte(':')
		buf.WriteString(entry.Origin.Function)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(entry.Origin.Line))
		buf.WriteByte(' ')
	}

	if entry.Origin.CallerID != "" {
		buf.WriteByte('(')
		buf.WriteString(entry.Origin.CallerID)
		buf.WriteString(") ")
	}

	// Message
	buf.WriteString(entry.Message)

	buf.WriteByte('\n')
}

package report

import (
	"fmt"
	"time"
)

// Kind classifies a runtime report.
type Kind int

const (
	// KindError for recoverable runtime errors
	KindError Kind = iota
	// KindCrash for recovered panics and abnormal goroutine exits
	KindCrash
	// KindWarning for suspicious but non-fatal conditions
	KindWarning
)

// String returns the lowercase name of the kind
func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindCrash:
		return "crash"
	case KindWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Report is one runtime error report published to the hub.
type Report struct {
	Kind Kind
	Text string
	Err  error
	Time time.Time
}

// Render returns the single-line description of the report.
func (r Report) Render() string {
	if r.Err != nil {
		if r.Text != "" {
			return fmt.Sprintf("%s: %v", r.Text, r.Err)
		}
		return r.Err.Error()
	}
	return r.Text
}

// Sink consumes reports from a hub. Names are unique per hub; a
// subscription under an existing name replaces it.
type Sink interface {
	Name() string
	Consume(Report)
}

package core

import (
	"errors"
	"fmt"
	"strings"
)

// Level represents the severity of a log event
type Level int8

// The zero Level is reserved as "unset" so configuration structs can
// distinguish an explicit debug threshold from an absent one.
const (
	// LevelDebug for detailed debugging information
	LevelDebug Level = iota + 1
	// LevelInfo for general informational messages
	LevelInfo
	// LevelNotice for normal but significant conditions
	LevelNotice
	// LevelWarning for warning conditions
	LevelWarning
	// LevelError for error conditions
	LevelError
	// LevelCritical for critical conditions
	LevelCritical
	// LevelAlert for conditions requiring immediate action
	LevelAlert
	// LevelEmergency for a system that is unusable
	LevelEmergency
	// LevelOff is the sentinel above every real level: nothing logs.
	// It is the aggregate minimum when no handlers are alive.
	LevelOff
)

// ErrInvalidLevel is returned when a numeric or textual level does not
// name a defined severity.
var ErrInvalidLevel = errors.New("invalid log level")

// String returns the lowercase name of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelNotice:
		return "notice"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	case LevelAlert:
		return "alert"
	case LevelEmergency:
		return "emergency"
	case LevelOff:
		return "off"
	default:
		return "unknown"
	}
}

// Valid reports whether l is a defined severity. LevelOff is valid as a
// threshold but not as an event level.
func (l Level) Valid() bool {
	return l >= LevelDebug && l <= LevelOff
}

// Compare orders two levels: negative when a is below b, zero when equal,
// positive when a is above b. An event at level a reaches the bus when
// Compare(a, threshold) >= 0.
func Compare(a, b Level) int {
	return int(a) - int(b)
}

// ToNumber returns the numeric value of a level.
func ToNumber(l Level) int {
	return int(l)
}

// FromNumber maps a numeric value back to its level.
func FromNumber(n int) (Level, error) {
	l := Level(n)
	if n < int(LevelDebug) || n > int(LevelOff) {
		return LevelOff, fmt.Errorf("%w: %d", ErrInvalidLevel, n)
	}
	return l, nil
}

// ParseLevel maps a level name (case-insensitive) to its Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "notice":
		return LevelNotice, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	case "alert":
		return LevelAlert, nil
	case "emergency":
		return LevelEmergency, nil
	case "off", "none":
		return LevelOff, nil
	default:
		return LevelOff, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

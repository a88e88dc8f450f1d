package handler

import (
	"fmt"

	"github.com/stjordanis/lager/core"
)

// Handler is the contract every sink implements. Install passes the
// opaque init arguments through to Init; the handler owns its own
// threshold and applies it inside Handle.
type Handler interface {
	// Init configures the handler from opaque arguments. Called exactly
	// once, before the first Handle.
	Init(args Args) error

	// Handle processes one envelope. An error return is a normal,
	// tolerated failure; a panic is treated as a handler crash by the
	// registry.
	Handle(entry *core.Entry) error

	// SetThreshold replaces the handler's minimum severity and returns
	// the previous one.
	SetThreshold(level core.Level) (core.Level, error)

	// Threshold returns the handler's current minimum severity.
	Threshold() core.Level

	// Terminate releases the handler's resources.
	Terminate() error
}

// ID identifies an installed handler: a type name plus an optional
// discriminator so several instances of one type can coexist (e.g. two
// file sinks writing different paths).
type ID struct {
	Type          string
	Discriminator string
}

// String renders the identity as "type" or "type/discriminator".
func (id ID) String() string {
	if id.Discriminator == "" {
		return id.Type
	}
	return id.Type + "/" + id.Discriminator
}

// Args carries handler init options opaquely from configuration to the
// handler. Recognized keys are handler-defined.
type Args map[string]any

// Str returns the string value for key, or def when absent.
func (a Args) Str(key, def string) string {
	if v, ok := a[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int returns the integer value for key, or def when absent. YAML
// decodes numbers as int or float64 depending on shape; both are
// accepted.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Bool returns the boolean value for key, or def when absent.
func (a Args) Bool(key string, def bool) bool {
	if v, ok := a[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Level parses the level named under key, or returns def when the key
// is absent or empty.
func (a Args) Level(key string, def core.Level) (core.Level, error) {
	s := a.Str(key, "")
	if s == "" {
		return def, nil
	}
	l, err := core.ParseLevel(s)
	if err != nil {
		return def, fmt.Errorf("argument %q: %w", key, err)
	}
	return l, nil
}

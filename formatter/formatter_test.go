package formatter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stjordanis/lager/core"
)

func TestTextFormatter_Basic(t *testing.T) {
	f := NewTextFormatter(Config{})

	entry := &core.Entry{
		Time:    time.Date(2026, 2, 18, 13, 0, 0, 0, time.UTC),
		Level:   core.LevelInfo,
		Message: "test message",
	}

	result, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := string(result)
	if !strings.Contains(output, "[info]") {
		t.Errorf("Expected '[info]' in output, got: %s", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected 'test message' in output, got: %s", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Expected trailing newline")
	}
}

func TestTextFormatter_WithOrigin(t *testing.T) {
	f := NewTextFormatter(Config{})

	entry := &core.Entry{
		Time:    time.Now(),
		Level:   core.LevelWarning,
		Message: "test",
		Origin: core.Origin{
			Module:   "sweeper",
			Function: "Run",
			Line:     123,
			CallerID: "worker-3",
			Defined:  true,
		},
	}

	result, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := string(result)
	if !strings.Contains(output, "sweeper:Run:123") {
		t.Errorf("Expected origin info in output, got: %s", output)
	}
	if !strings.Contains(output, "(worker-3)") {
		t.Errorf("Expected caller id in output, got: %s", output)
	}
}

func TestTextFormatter_OmitOrigin(t *testing.T) {
	f := NewTextFormatter(Config{OmitOrigin: true})

	entry := &core.Entry{
		Time:    time.Now(),
		Level:   core.LevelInfo,
		Message: "test",
		Origin:  core.Origin{Module: "m", Function: "f", Line: 1, Defined: true},
	}

	result, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if strings.Contains(string(result), "m:f:1") {
		t.Errorf("Expected origin omitted, got: %s", result)
	}
}

func TestTextFormatter_FormatEntry(t *testing.T) {
	f := NewTextFormatter(Config{})
	var buf bytes.Buffer

	f.FormatEntry(&core.Entry{
		Time:    time.Now(),
		Level:   core.LevelError,
		Message: "buffered",
	}, &buf)

	if !strings.Contains(buf.String(), "buffered") {
		t.Errorf("Expected 'buffered' in output, got: %s", buf.String())
	}
}

func TestJSONFormatter_Basic(t *testing.T) {
	f := NewJSONFormatter(Config{})

	entry := &core.Entry{
		Time:    time.Date(2026, 2, 18, 13, 0, 0, 0, time.UTC),
		Level:   core.LevelInfo,
		Message: "test message",
	}

	result, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Verify it's valid JSON
	var data map[string]interface{}
	if err := json.Unmarshal(result, &data); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if data["level"] != "info" {
		t.Errorf("Expected level 'info', got: %v", data["level"])
	}
	if data["message"] != "test message" {
		t.Errorf("Expected message 'test message', got: %v", data["message"])
	}
}

func TestJSONFormatter_WithOrigin(t *testing.T) {
	f := NewJSONFormatter(Config{})

	entry := &core.Entry{
		Time:    time.Now(),
		Level:   core.LevelInfo,
		Message: "test",
		Origin: core.Origin{
			Module:   "sweeper",
			Function: "Run",
			Line:     123,
			CallerID: "worker-3",
			Defined:  true,
		},
	}

	result, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(result, &data); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	origin, ok := data["origin"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected origin object in JSON")
	}

	if origin["module"] != "sweeper" {
		t.Errorf("Expected module='sweeper', got: %v", origin["module"])
	}
	if origin["line"] != float64(123) {
		t.Errorf("Expected line=123, got: %v", origin["line"])
	}
	if data["caller"] != "worker-3" {
		t.Errorf("Expected caller='worker-3', got: %v", data["caller"])
	}
}

func TestJSONFormatter_Escaping(t *testing.T) {
	f := NewJSONFormatter(Config{})

	entry := &core.Entry{
		Time:    time.Now(),
		Level:   core.LevelError,
		Message: "quote \" backslash \\ newline \n tab \t control \x01 done",
	}

	result, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(result, &data); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if data["message"] != "quote \" backslash \\ newline \n tab \t control \x01 done" {
		t.Errorf("Message did not survive escaping round-trip: %v", data["message"])
	}
}

func BenchmarkTextFormatter(b *testing.B) {
	f := NewTextFormatter(Config{})
	entry := &core.Entry{
		Time:    time.Now(),
		Level:   core.LevelInfo,
		Message: "test message",
		Origin:  core.Origin{Module: "bench", Function: "run", Line: 42, Defined: true},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Format(entry)
	}
}

func BenchmarkJSONFormatter(b *testing.B) {
	f := NewJSONFormatter(Config{})
	entry := &core.Entry{
		Time:    time.Now(),
		Level:   core.LevelInfo,
		Message: "test message",
		Origin:  core.Origin{Module: "bench", Function: "run", Line: 42, Defined: true},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Format(entry)
	}
}

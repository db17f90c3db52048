package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "test message",
			fields:  Fields{"key": "value"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "debug message",
			want:    false, // won't log (below INFO)
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "error occurred",
			err:     errors.New("test error"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > before
			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}

	out := buf.String()
	for _, want := range []string{"test message", "key=value", "error occurred", "test error"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("output to a buffer should not contain colour escapes")
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(LevelDebug, &buf)

	logger.Error("send failed", Fields{"member": "Ana_Lee"}, errors.New("dial tcp: refused"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v, output %q", err, buf.String())
	}

	if entry["msg"] != "send failed" {
		t.Errorf("msg = %v, want 'send failed'", entry["msg"])
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry["member"] != "Ana_Lee" {
		t.Errorf("member = %v, want Ana_Lee", entry["member"])
	}
	if entry["err"] != "dial tcp: refused" {
		t.Errorf("err = %v, want 'dial tcp: refused'", entry["err"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("test_counter")
	m.IncrCounter("test_counter")
	m.IncrCounter("test_counter")

	snapshot := m.Snapshot()
	if snapshot.Counters["test_counter"] != 3 {
		t.Errorf("Counter = %v, want 3", snapshot.Counters["test_counter"])
	}

	// Snapshots are copies
	m.IncrCounter("test_counter")
	if snapshot.Counters["test_counter"] != 3 {
		t.Errorf("snapshot changed after a later increment: %v", snapshot.Counters["test_counter"])
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("row", 100*time.Millisecond)
	m.RecordTiming("row", 200*time.Millisecond)
	m.RecordTiming("row", 150*time.Millisecond)

	rowTiming, ok := m.Snapshot().Timings["row"]
	if !ok {
		t.Fatal("snapshot has no row timing")
	}

	want := TimingStats{Count: 3, Total: "450ms", Average: "150ms", Min: "100ms", Max: "200ms"}
	if rowTiming != want {
		t.Errorf("row timing = %+v, want %+v", rowTiming, want)
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := defaultLogger
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(prev)

	Debug("test debug", nil)
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))

	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("logged %d lines, want 4", got)
	}
}

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/canslim/pkg/config"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewSetsGlobalLevel(t *testing.T) {
	tests := []struct {
		level     string
		wantLevel zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			if log == nil {
				t.Fatal("Expected logger to be created")
			}
			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.WithFields(map[string]interface{}{
		"ticker":   "AAPL",
		"attempts": 2,
	}).Info("fetched bars")

	entry := decodeEntry(t, &buf)
	if entry["message"] != "fetched bars" {
		t.Errorf("Unexpected message %v", entry["message"])
	}
	if entry["ticker"] != "AAPL" {
		t.Errorf("Expected ticker field, got %v", entry["ticker"])
	}
	if entry["attempts"] != float64(2) {
		t.Errorf("Expected attempts=2, got %v", entry["attempts"])
	}
	if entry["service"] != "canslim" {
		t.Errorf("Expected service=canslim, got %v", entry["service"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.WithError(errors.New("provider timeout")).WithField("op", "price_history").Warn("fetch failed")

	entry := decodeEntry(t, &buf)
	if entry["error"] != "provider timeout" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected warn level, got %v", entry["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Debug("hidden")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below warn, got %q", buf.String())
	}

	log.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected error output, got %q", buf.String())
	}
}

func TestScopedFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info").WithComponent("screening").WithBatch("b-1").WithTicker("MSFT")

	log.Info("screened")

	entry := decodeEntry(t, &buf)
	for key, want := range map[string]string{"component": "screening", "batch_id": "b-1", "ticker": "MSFT"} {
		if entry[key] != want {
			t.Errorf("Expected %s=%s, got %v", key, want, entry[key])
		}
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.WithField("k", "v").Error("discarded")
}

func TestLogFormats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		t.Run(format, func(t *testing.T) {
			oldStderr := os.Stderr
			r, w, _ := os.Pipe()
			os.Stderr = w

			log := New(&config.Config{Env: "development", LogLevel: "info", LogFormat: format})
			log.Info("test message")

			w.Close()
			os.Stderr = oldStderr

			var buf bytes.Buffer
			_, _ = io.Copy(&buf, r)

			if !strings.Contains(buf.String(), "test message") {
				t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
			}
		})
	}
}

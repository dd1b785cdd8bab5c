package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skyhaul/internal/logging"
)

func TestNewPrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "pretty", Console: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("order submitted", "order_id", "abc123", "scenes", 4)

	line := buf.String()
	if !strings.Contains(line, "INFO") {
		t.Errorf("expected level label in output, got %q", line)
	}
	if !strings.Contains(line, "order submitted") {
		t.Errorf("expected message in output, got %q", line)
	}
	if !strings.Contains(line, "order_id=abc123") || !strings.Contains(line, "scenes=4") {
		t.Errorf("expected key=value attrs in output, got %q", line)
	}
}

func TestNewPrettyComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "pretty", Console: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.With("component", "catalog").Info("search complete", "features", 12)

	line := buf.String()
	if !strings.Contains(line, "catalog: search complete") {
		t.Errorf("expected component prefix, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component should not repeat as an attr, got %q", line)
	}
}

func TestNewPrettyQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "pretty", Console: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Warn("slow response", "endpoint", "quick search", logging.Error(errors.New("timed out")))

	line := buf.String()
	if !strings.Contains(line, `endpoint="quick search"`) {
		t.Errorf("expected quoted value, got %q", line)
	}
	if !strings.Contains(line, `error="timed out"`) {
		t.Errorf("expected error attr, got %q", line)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "pretty", Console: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Errorf("info record leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestNewJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("downloaded", "files", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal console JSON: %v", err)
	}
	if record["msg"] != "downloaded" {
		t.Errorf("msg = %v, want downloaded", record["msg"])
	}
	if record["level"] != "info" {
		t.Errorf("level = %v, want info", record["level"])
	}
	if _, ok := record["ts"].(string); !ok {
		t.Errorf("ts missing or not a string: %v", record["ts"])
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "skyhaul.log")

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "pretty", Console: &buf, FilePath: path, NoColor: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("persisted", "order_id", "xyz")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("unmarshal file JSON: %v", err)
	}
	if record["msg"] != "persisted" {
		t.Errorf("file msg = %v, want persisted", record["msg"])
	}
	if record["order_id"] != "xyz" {
		t.Errorf("file order_id = %v, want xyz", record["order_id"])
	}
	if !strings.Contains(buf.String(), "persisted") {
		t.Errorf("console output missing record: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("this should go nowhere", logging.Error(errors.New("boom")))
}

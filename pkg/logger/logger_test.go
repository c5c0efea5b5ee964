package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize text logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("json")); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat("json"), WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	ts := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)
	Named("merge").With(String("run_id", "r1")).Info(ctx, "merge finished",
		Int("appended", 3),
		Int64("entry_id", 42),
		Bool("no_new_data", false),
		Time("watermark", ts),
		Error(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "merge finished" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["logger"] != "merge" || rec["run_id"] != "r1" {
		t.Errorf("missing named/with attributes: %v", rec)
	}
	if rec["appended"] != float64(3) || rec["entry_id"] != float64(42) {
		t.Errorf("numeric fields not encoded: %v", rec)
	}
	if rec["watermark"] != "2025-08-25T12:00:00Z" {
		t.Errorf("watermark = %v", rec["watermark"])
	}
	src, _ := rec["source"].(string)
	if !strings.Contains(src, "logger_test.go") {
		t.Errorf("source = %q, want caller file", src)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	ctx := context.Background()

	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %q", buf.String())
	}

	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatal(err)
	}
	Get().Debug(ctx, "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug not written at debug level: %q", buf.String())
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	for _, lvl := range []string{"", "info", "warn", "warning", "error"} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q): %v", lvl, err)
		}
	}
}

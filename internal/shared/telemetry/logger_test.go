package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	fn()
	_ = w.Close()
	os.Stdout = orig
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read: %v", err)
	}
	return buf.String()
}

func TestWriteEmitsJSONLine(t *testing.T) {
	out := captureStdout(t, func() {
		Warn("resume.heal.failed", map[string]any{"deck_id": "d1", "err": errors.New("boom")})
	})
	line := strings.TrimSpace(out)
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", line, err)
	}
	if entry["level"] != "warn" {
		t.Fatalf("expected level warn, got %v", entry["level"])
	}
	if entry["msg"] != "resume.heal.failed" {
		t.Fatalf("unexpected msg %v", entry["msg"])
	}
	if entry["deck_id"] != "d1" || entry["err"] != "boom" {
		t.Fatalf("unexpected fields %v", entry)
	}
	if _, ok := entry["ts"].(string); !ok {
		t.Fatalf("expected ts string, got %v", entry["ts"])
	}
}

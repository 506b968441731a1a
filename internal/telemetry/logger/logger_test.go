package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf})

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d log lines, want 4", len(lines))
	}

	for i, want := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		var rec map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &rec); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if rec["level"] != want {
			t.Errorf("line %d level = %v, want %s", i, rec["level"], want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "text", Output: &buf})

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message should be written")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "error", Format: "text", Output: &buf})

	l.Info("before")
	SetLevel("info")
	l.Info("after")

	if got := GetLevel(); got != "info" {
		t.Errorf("GetLevel() = %q, want %q", got, "info")
	}
	out := buf.String()
	if strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Errorf("dynamic level change not applied: %q", out)
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})

	l.Info("connect", "user", "root", "password", "hunter2", "authorizations", "A,B")

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("password leaked: %s", out)
	}
	if !strings.Contains(out, redactedValue) {
		t.Errorf("expected redaction marker: %s", out)
	}
	if !strings.Contains(out, "A,B") {
		t.Errorf("authorizations should not be redacted: %s", out)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"password", true},
		{"DB_PASSWORD", true},
		{"client_secret", true},
		{"table", false},
		{"authorizations", false},
	}
	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestL_WithCommandID(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithLogger(context.Background(), l)
	ctx = WithCommandID(ctx, "cmd-42")

	L(ctx).Info("scan started")

	if !strings.Contains(buf.String(), `"command_id":"cmd-42"`) {
		t.Errorf("command id missing: %s", buf.String())
	}
	if got := CommandIDFromContext(context.Background()); got != "" {
		t.Errorf("CommandIDFromContext(empty) = %q, want empty", got)
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext should fall back to the default logger")
	}
}

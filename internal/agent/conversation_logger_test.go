package agent

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConversationLoggerWritesPerSessionNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := NewConversationLogger(ConversationLogConfig{
		Enabled:   true,
		Dir:       dir,
		QueueSize: 16,
	}, slog.Default())
	if err != nil {
		t.Fatalf("NewConversationLogger failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	event := ConversationLogEvent{
		UserID:     "user-1",
		SessionID:  "sess-1",
		Channel:    "ws",
		Direction:  "inbound",
		EventType:  "player_message",
		ContentRaw: "try restarting it",
	}
	logger.Log(event)

	path := filepath.Join(dir, "user-1", "sess-1.ndjson")
	line := waitForLogLine(t, path)
	var got ConversationLogEvent
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if got.ContentRaw != "try restarting it" {
		t.Fatalf("unexpected ContentRaw: %q", got.ContentRaw)
	}
	if got.Content == "" {
		t.Fatal("expected cleaned content to be populated")
	}
}

func TestConversationLoggerDisabledIsNoop(t *testing.T) {
	t.Parallel()

	logger, err := NewConversationLogger(ConversationLogConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("NewConversationLogger failed: %v", err)
	}
	if _, ok := logger.(noopConversationLogger); !ok {
		t.Fatalf("expected noop logger, got %T", logger)
	}
	logger.Log(ConversationLogEvent{UserID: "u"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestConversationLoggerGlobalFileAndDrainOnClose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	global := filepath.Join(dir, "all", "transcripts.ndjson")
	logger, err := NewConversationLogger(ConversationLogConfig{
		Enabled:       true,
		Dir:           filepath.Join(dir, "sessions"),
		GlobalEnabled: true,
		GlobalPath:    global,
		QueueSize:     16,
	}, slog.Default())
	if err != nil {
		t.Fatalf("NewConversationLogger failed: %v", err)
	}

	turns := []ConversationLogEvent{
		{UserID: "anon_a", SessionID: "anon_a:tab-1", Direction: "outbound", EventType: "initial_mission", ContentRaw: "my files are too big to email"},
		{UserID: "anon_a", SessionID: "anon_a:tab-1", Direction: "inbound", EventType: "player_message", ContentRaw: "right click and compress it"},
		{UserID: "anon_b", SessionID: "anon_b:tab-9", Direction: "outbound", EventType: "game_over", ContentRaw: "thanks!", Meta: map[string]any{"win": true}},
	}
	for _, ev := range turns {
		logger.Log(ev)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	logger.Log(ConversationLogEvent{UserID: "anon_a", SessionID: "late", ContentRaw: "after close"})

	data, err := os.ReadFile(global)
	if err != nil {
		t.Fatalf("read global log: %v", err)
	}
	if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != len(turns) {
		t.Fatalf("global log has %d lines, want %d", n, len(turns))
	}

	perSession, err := os.ReadFile(filepath.Join(dir, "sessions", "anon_a", "anon_a_tab-1.ndjson"))
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	if n := strings.Count(string(perSession), "\n"); n != 2 {
		t.Fatalf("session log has %d lines, want 2", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "sessions", "anon_a", "late.ndjson")); !os.IsNotExist(err) {
		t.Fatalf("event logged after Close was written: %v", err)
	}
}

func TestSafePathPart(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"anon-1":    "anon-1",
		"../../etc": ".._.._etc",
		"":          "unknown",
		"..":        "unknown",
		"user:tab":  "user_tab",
	}
	for in, want := range tests {
		if got := safePathPart(in); got != want {
			t.Errorf("safePathPart(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanForReadability(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"try restarting it":              "try restarting it",
		"line one\nline\ttwo\x00\x07 end": "line one line two end",
		"  padded   reply  ":             "padded reply",
		"\r\n":                           "",
	}
	for in, want := range tests {
		if got := cleanForReadability(in); got != want {
			t.Errorf("cleanForReadability(%q) = %q, want %q", in, got, want)
		}
	}
}

func waitForLogLine(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) > 0 {
				return lines[len(lines)-1]
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for log file %s", path)
	return ""
}

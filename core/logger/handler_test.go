package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestHandler(format logFormat) (*structuredHandler, *syncBuffer, *asyncWriter) {
	sink := &syncBuffer{}
	w := newAsyncWriter([]io.Writer{sink}, 16)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: w,
		format: format,
	})
	return h, sink, w
}

func captureLine(t *testing.T, sink *syncBuffer, w *asyncWriter) string {
	t.Helper()
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	line := strings.TrimSpace(sink.String())
	if line == "" {
		t.Fatal("no output captured")
	}
	return line
}

func TestKVLineOrdering(t *testing.T) {
	h, sink, w := newTestHandler(formatKV)
	defer w.Close()

	r := slog.NewRecord(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), slog.LevelInfo, "", 0)
	r.AddAttrs(
		slog.String("component", "service.workflow"),
		slog.String("event", "payment_approved"),
		slog.Int64("user_id", 42),
		slog.String("plan_id", "tier3"),
		slog.String("status", "ok"),
	)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}

	line := captureLine(t, sink, w)
	wantOrder := []string{"ts=", "level=INFO", "component=service.workflow", "event=payment_approved", "status=ok", "user_id=42", "plan_id=tier3"}
	idx := -1
	for _, tok := range wantOrder {
		pos := strings.Index(line, tok)
		if pos < 0 {
			t.Fatalf("line missing %q: %s", tok, line)
		}
		if pos < idx {
			t.Fatalf("token %q out of order in %s", tok, line)
		}
		idx = pos
	}
}

func TestJSONLineFieldsAndContext(t *testing.T) {
	h, sink, w := newTestHandler(formatJSON)
	defer w.Close()

	ctx := WithRID(context.Background(), BuildRID(900123, -1007, 42))
	ctx = WithUpdateMeta(ctx, 900123, 42, -1007)
	ctx = WithHandler(ctx, "cmd:/approve")

	r := slog.NewRecord(time.Now(), slog.LevelWarn, "notify_failed", 0)
	r.AddAttrs(
		slog.String("component", "tg"),
		slog.String("err_code", "GATEWAY_DELIVERY"),
	)
	if err := h.Handle(ctx, r); err != nil {
		t.Fatalf("handle: %v", err)
	}

	line := captureLine(t, sink, w)
	var got map[string]any
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("invalid json %q: %v", line, err)
	}
	if got["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", got["level"])
	}
	if got["event"] != "notify_failed" {
		t.Errorf("event = %v, want notify_failed falling back to message", got["event"])
	}
	if got["handler"] != "cmd:/approve" {
		t.Errorf("handler = %v", got["handler"])
	}
	if got["user_id"] != float64(42) {
		t.Errorf("user_id = %v", got["user_id"])
	}
	if rid, _ := got["rid"].(string); rid != CompactRID(BuildRID(900123, -1007, 42)) {
		t.Errorf("rid = %q, want compacted form", rid)
	}
}

func TestDurationRenamedToMillis(t *testing.T) {
	h, sink, w := newTestHandler(formatJSON)
	defer w.Close()

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "done", 0)
	r.AddAttrs(slog.Duration("duration", 1500*time.Millisecond))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}

	line := captureLine(t, sink, w)
	var got map[string]any
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := got["duration"]; ok {
		t.Error("raw duration key should be renamed")
	}
	if got["duration_ms"] != float64(1500) {
		t.Errorf("duration_ms = %v, want 1500", got["duration_ms"])
	}
}

func TestEmptyFieldsPruned(t *testing.T) {
	h, sink, w := newTestHandler(formatKV)
	defer w.Close()

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "startup", 0)
	r.AddAttrs(slog.String("username", ""), slog.String("mode", "polling"))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}

	line := captureLine(t, sink, w)
	if strings.Contains(line, "username=") {
		t.Errorf("empty field not pruned: %s", line)
	}
	if !strings.Contains(line, "mode=polling") {
		t.Errorf("missing mode field: %s", line)
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("100:35:35"); got != "2s.z.z" {
		t.Errorf("CompactRID = %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Errorf("unparseable rid should pass through, got %q", got)
	}
	if got := CompactRID(""); got != "" {
		t.Errorf("empty rid = %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 4)
	passed := 0
	for i := 0; i < 40; i++ {
		if s.Allow() {
			passed++
		}
	}
	if passed != 10 {
		t.Errorf("passed = %d, want 10 of 40", passed)
	}

	s.Set(0, 0)
	for i := 0; i < 5; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must pass everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := []struct {
		in   string
		n, d int
	}{
		{"1/50", 1, 50},
		{"50", 1, 50},
		{"3/10", 3, 10},
		{"", 0, 0},
		{"abc", 0, 0},
	}
	for _, tc := range cases {
		n, d := parseRatioSpec(tc.in)
		if n != tc.n || d != tc.d {
			t.Errorf("parseRatioSpec(%q) = %d/%d, want %d/%d", tc.in, n, d, tc.n, tc.d)
		}
	}
}

func TestSanitizeStripsControls(t *testing.T) {
	in := "hello\x00world\nnext\tcol\x1b[31m"
	got := Sanitize(in)
	if strings.ContainsRune(got, 0) || strings.Contains(got, "\x1b") {
		t.Errorf("control characters survived: %q", got)
	}
	if !strings.Contains(got, "\n") || !strings.Contains(got, "\t") {
		t.Errorf("tab/newline should survive: %q", got)
	}
}

package logger

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func closeWriter(t *testing.T, aw *asyncWriter) {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", ComponentFilters)
	LogEvent(ctx, log, slog.LevelInfo, "filter.disabled",
		slog.String("status", "OK"),
		slog.String("filter", "weather"),
		slog.Int("group", 0),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	tokens := strings.Split(line, " ")
	expected := []string{
		"ts=", "level=INFO", "component=filters", "event=filter.disabled",
		"status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9",
		"filter=weather", "group=0",
	}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONCompactRID(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	rawRID := "12:34:56"
	ctx := WithRID(Background(), rawRID)

	log := slog.New(handler).With("component", ComponentDB)
	LogEvent(ctx, log, slog.LevelError, "store.insert",
		slog.String("collection", "disabled_filters"),
		slog.String("err", "boom"),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"db"`, `"event":"store.insert"`, `"rid":"c.y.1k"`, `"rid_full":"12:34:56"`, `"collection":"disabled_filters"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
	if !strings.Contains(line, `"ts_unix_nano"`) {
		t.Fatalf("expected ts_unix_nano in JSON output, got %s", line)
	}
}

func TestStructuredHandlerKVOmitsRIDFull(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(Background(), "123:456:789")
	LogEvent(ctx, slog.New(handler), slog.LevelInfo, "rid.test")
	closeWriter(t, aw)

	line := buf.String()
	if !strings.Contains(line, "rid="+CompactRID("123:456:789")) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestStructuredHandlerDurationAndEmptyFields(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	slog.New(handler).LogAttrs(Background(), slog.LevelInfo, "db connected",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.String("host", ""),
		slog.String("outcome", "bogus"),
	)
	closeWriter(t, aw)

	line := buf.String()
	if !strings.Contains(line, "duration_ms=2") {
		t.Fatalf("expected rounded duration_ms, got %s", line)
	}
	if !strings.Contains(line, `event="db connected"`) {
		t.Fatalf("expected message as quoted event, got %s", line)
	}
	for _, gone := range []string{"host=", "outcome="} {
		if strings.Contains(line, gone) {
			t.Fatalf("%s should be pruned, got %s", gone, line)
		}
	}
}

func TestStructuredHandlerLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{level: slog.LevelWarn, writer: aw, format: formatKV})
	log := slog.New(handler)
	log.Info("dropped")
	log.Warn("kept")
	closeWriter(t, aw)

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, s.Allow())
	}
	want := []bool{true, false, false, true, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Allow #%d = %v, want %v", i, got[i], want[i])
		}
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/10": {1, 10},
		"25":   {1, 25},
		"0":    {0, 0},
		"x/y":  {0, 0},
		"":     {0, 0},
	}
	for spec, want := range cases {
		num, den := parseRatioSpec(spec)
		if num != want[0] || den != want[1] {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d", spec, num, den, want[0], want[1])
		}
	}
}

func TestAsyncWriterRejectsWritesAfterClose(t *testing.T) {
	var buf bytes.Buffer
	aw := newAsyncWriter([]io.Writer{&buf}, 64)
	if err := aw.Write([]byte("one\n")); err != nil {
		t.Fatal(err)
	}
	closeWriter(t, aw)
	if err := aw.Write([]byte("two\n")); !errors.Is(err, errWriterClosed) {
		t.Fatalf("write after close: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if buf.String() != "one\n" {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestHelpersWithoutInit(t *testing.T) {
	// Must not panic before InitLogger.
	Info(Background(), ComponentFilters, "filter.disabled", slog.String("filter", "ping"))
	if d := RoundMS(1500 * time.Microsecond); d != 2*time.Millisecond {
		t.Fatalf("RoundMS = %v", d)
	}
	if s, trunc := SummarizeStrings([]string{"a", "b", "c"}, 2); s != "a, b" || !trunc {
		t.Fatalf("SummarizeStrings = %q %v", s, trunc)
	}
}

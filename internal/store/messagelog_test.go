package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var testDay = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func record(ts, body string) string {
	return "[" + ts + "]\n" + body
}

func TestMessageLogAppend(t *testing.T) {
	log := NewMessageLog(t.TempDir(), testLogger())

	blob := record("2026-08-28 10:00 UTC", "first") + RecordDelimiter +
		record("2026-08-28 10:05 UTC", "second") + RecordDelimiter

	written, err := log.Append("news", testDay, blob)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if written != 2 {
		t.Fatalf("written = %d, want 2", written)
	}

	count, err := log.Count("news", testDay)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestMessageLogAppendIsIdempotent(t *testing.T) {
	log := NewMessageLog(t.TempDir(), testLogger())

	blob := record("2026-08-28 10:00 UTC", "first") + RecordDelimiter +
		record("2026-08-28 10:05 UTC", "second") + RecordDelimiter

	if _, err := log.Append("news", testDay, blob); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	written, err := log.Append("news", testDay, blob)
	if err != nil {
		t.Fatalf("second Append: %v", err)
	}
	if written != 0 {
		t.Fatalf("second append wrote %d records, want 0", written)
	}

	count, _ := log.Count("news", testDay)
	if count != 2 {
		t.Fatalf("count after re-append = %d, want 2", count)
	}
}

func TestMessageLogAppendsOnlyNovelRecords(t *testing.T) {
	log := NewMessageLog(t.TempDir(), testLogger())

	first := record("2026-08-28 10:00 UTC", "first") + RecordDelimiter
	if _, err := log.Append("news", testDay, first); err != nil {
		t.Fatalf("Append: %v", err)
	}

	overlap := record("2026-08-28 10:00 UTC", "first") + RecordDelimiter +
		record("2026-08-28 10:05 UTC", "second") + RecordDelimiter
	written, err := log.Append("news", testDay, overlap)
	if err != nil {
		t.Fatalf("Append overlap: %v", err)
	}
	if written != 1 {
		t.Fatalf("written = %d, want 1", written)
	}

	count, _ := log.Count("news", testDay)
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestMessageLogPreservesArrivalOrder(t *testing.T) {
	dir := t.TempDir()
	log := NewMessageLog(dir, testLogger())

	blob := record("2026-08-28 10:00 UTC", "alpha") + RecordDelimiter +
		record("2026-08-28 10:05 UTC", "beta") + RecordDelimiter
	if _, err := log.Append("news", testDay, blob); err != nil {
		t.Fatalf("Append: %v", err)
	}
	later := record("2026-08-28 10:10 UTC", "gamma") + RecordDelimiter
	if _, err := log.Append("news", testDay, later); err != nil {
		t.Fatalf("Append later: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "news", "messages", "2026-08-28.txt"))
	if err != nil {
		t.Fatalf("read partition: %v", err)
	}
	recs := splitRecords(string(data))
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if !strings.Contains(recs[i], want) {
			t.Errorf("record %d = %q, want body %q", i, recs[i], want)
		}
	}
}

func TestMessageLogPartitionsByDay(t *testing.T) {
	log := NewMessageLog(t.TempDir(), testLogger())

	day1 := time.Date(2026, 8, 27, 23, 55, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 28, 0, 5, 0, 0, time.UTC)

	rec := record("2026-08-27 23:55 UTC", "late") + RecordDelimiter
	if _, err := log.Append("news", day1, rec); err != nil {
		t.Fatalf("Append day1: %v", err)
	}
	rec = record("2026-08-28 00:05 UTC", "early") + RecordDelimiter
	if _, err := log.Append("news", day2, rec); err != nil {
		t.Fatalf("Append day2: %v", err)
	}

	c1, _ := log.Count("news", day1)
	c2, _ := log.Count("news", day2)
	if c1 != 1 || c2 != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", c1, c2)
	}
}

func TestMessageLogEmptyBlob(t *testing.T) {
	log := NewMessageLog(t.TempDir(), testLogger())

	written, err := log.Append("news", testDay, "")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if written != 0 {
		t.Fatalf("written = %d, want 0", written)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"news", "news"},
		{"a/b", "a_b"},
		{"..", "_"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

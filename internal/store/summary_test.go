package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wirereport/wirereport/pkg/feed"
)

func makeSummary(tf feed.Timeframe, start time.Time, headline string) feed.Summary {
	return feed.Summary{
		PeriodStart: start,
		PeriodEnd:   start.Add(tf.MustDuration()),
		Timeframe:   tf,
		Channel:     "news",
		Content: feed.SummaryContent{
			Headline: headline,
			Location: "Berlin, Germany",
			Body:     "Something happened.",
		},
	}
}

func TestSummaryStoreSaveAndLatest(t *testing.T) {
	st := NewSummaryStore(t.TempDir(), nil, testLogger())

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if err := st.Save("news", makeSummary(feed.Timeframe1h, base, "first")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Save("news", makeSummary(feed.Timeframe1h, base.Add(time.Hour), "second")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	latest, ok := st.Latest("news", feed.Timeframe1h)
	if !ok {
		t.Fatal("Latest returned no summary")
	}
	if latest.Content.Headline != "second" {
		t.Fatalf("latest headline = %q, want %q", latest.Content.Headline, "second")
	}
	if st.Count("news", feed.Timeframe1h) != 2 {
		t.Fatalf("count = %d, want 2", st.Count("news", feed.Timeframe1h))
	}
}

func TestSummaryStoreRejectsDuplicatePeriod(t *testing.T) {
	st := NewSummaryStore(t.TempDir(), nil, testLogger())

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if err := st.Save("news", makeSummary(feed.Timeframe1h, base, "original")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Save("news", makeSummary(feed.Timeframe1h, base, "replacement")); err != nil {
		t.Fatalf("Save duplicate: %v", err)
	}

	if st.Count("news", feed.Timeframe1h) != 1 {
		t.Fatalf("count = %d, want 1", st.Count("news", feed.Timeframe1h))
	}
	latest, _ := st.Latest("news", feed.Timeframe1h)
	if latest.Content.Headline != "original" {
		t.Fatalf("headline = %q, duplicate period must not replace the original", latest.Content.Headline)
	}
}

func TestSummaryStoreRetentionTrim(t *testing.T) {
	st := NewSummaryStore(t.TempDir(), map[feed.Timeframe]int{feed.Timeframe1h: 3}, testLogger())

	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s := makeSummary(feed.Timeframe1h, base.Add(time.Duration(i)*time.Hour), "h"+string(rune('0'+i)))
		if err := st.Save("news", s); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	if got := st.Count("news", feed.Timeframe1h); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
	recent := st.Recent("news", feed.Timeframe1h, 0)
	if recent[0].Content.Headline != "h4" || recent[2].Content.Headline != "h2" {
		t.Fatalf("retention kept wrong entries: newest %q, oldest %q",
			recent[0].Content.Headline, recent[2].Content.Headline)
	}
}

func TestSummaryStoreLatestAnyFallsBack(t *testing.T) {
	st := NewSummaryStore(t.TempDir(), nil, testLogger())

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if err := st.Save("news", makeSummary(feed.Timeframe10m, base, "short")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Save("news", makeSummary(feed.Timeframe24h, base.Add(-time.Hour), "daily")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// No 1h collection exists, so the freshest head across the others wins.
	got, ok := st.LatestAny("news", feed.Timeframe1h)
	if !ok {
		t.Fatal("LatestAny returned no summary")
	}
	if got.Content.Headline != "daily" {
		t.Fatalf("headline = %q, want %q (greatest period end)", got.Content.Headline, "daily")
	}
}

func TestSummaryStoreLatestAnyPrefersSameTimeframe(t *testing.T) {
	st := NewSummaryStore(t.TempDir(), nil, testLogger())

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if err := st.Save("news", makeSummary(feed.Timeframe1h, base.Add(-24*time.Hour), "stale-hourly")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Save("news", makeSummary(feed.Timeframe10m, base, "fresh-10m")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok := st.LatestAny("news", feed.Timeframe1h)
	if !ok {
		t.Fatal("LatestAny returned no summary")
	}
	if got.Content.Headline != "stale-hourly" {
		t.Fatalf("headline = %q, same-timeframe summary must win even when older", got.Content.Headline)
	}
}

func TestSummaryStoreCorruptCollection(t *testing.T) {
	dir := t.TempDir()
	st := NewSummaryStore(dir, nil, testLogger())

	path := filepath.Join(dir, "news", "summaries", "1h_summaries.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o640); err != nil {
		t.Fatal(err)
	}

	if _, ok := st.Latest("news", feed.Timeframe1h); ok {
		t.Fatal("Latest returned a summary from a corrupt collection")
	}

	// The corrupt file is moved aside so the next save starts fresh.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	var quarantined bool
	for _, e := range entries {
		if strings.Contains(e.Name(), ".corrupt.") {
			quarantined = true
		}
	}
	if !quarantined {
		t.Fatal("corrupt collection was not quarantined")
	}

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if err := st.Save("news", makeSummary(feed.Timeframe1h, base, "recovered")); err != nil {
		t.Fatalf("Save after corruption: %v", err)
	}
	if got := st.Count("news", feed.Timeframe1h); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
}

func TestSummaryStoreOnDiskShape(t *testing.T) {
	dir := t.TempDir()
	st := NewSummaryStore(dir, nil, testLogger())

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if err := st.Save("news", makeSummary(feed.Timeframe10m, base, "shape")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "news", "summaries", "10m_summaries.json"))
	if err != nil {
		t.Fatalf("read collection: %v", err)
	}
	var doc struct {
		Summaries []json.RawMessage `json:"summaries"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(doc.Summaries))
	}
}

func TestSweeperRemovesStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "news", "messages", "2026-07-01.txt")
	fresh := filepath.Join(dir, "news", "messages", "2026-08-28.txt")
	if err := os.MkdirAll(filepath.Dir(stale), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old records"), 0o640); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fresh, []byte("new records"), 0o640); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-60 * 24 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	sw := NewSweeper(dir, testLogger())
	stats, err := sw.Sweep(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if stats.FilesRemoved != 1 {
		t.Fatalf("files removed = %d, want 1", stats.FilesRemoved)
	}
	if stats.BytesFreed != int64(len("old records")) {
		t.Fatalf("bytes freed = %d, want %d", stats.BytesFreed, len("old records"))
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale partition still on disk")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh partition was removed: %v", err)
	}
}

func TestSweeperMissingBaseDir(t *testing.T) {
	sw := NewSweeper(filepath.Join(t.TempDir(), "absent"), testLogger())
	stats, err := sw.Sweep(time.Hour)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if stats.FilesRemoved != 0 {
		t.Fatalf("files removed = %d, want 0", stats.FilesRemoved)
	}
}

func TestSweeperWaitsForCollectionWriters(t *testing.T) {
	dir := t.TempDir()
	logger := testLogger()
	sum := NewSummaryStore(dir, nil, logger)

	path := filepath.Join(dir, "news", "summaries", "1h_summaries.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"summaries":[]}`), 0o640); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-60 * 24 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	sw := NewSweeper(dir, logger, sum)

	// Hold the store's lock for the collection, as an in-flight Save
	// would, and refresh the file before releasing it. The sweep must
	// block on the lock and then see the fresh mtime.
	lock := sum.lockFor(path)
	lock.Lock()

	done := make(chan CleanupStats, 1)
	go func() {
		stats, err := sw.Sweep(30 * 24 * time.Hour)
		if err != nil {
			t.Errorf("Sweep: %v", err)
		}
		done <- stats
	}()

	if err := os.WriteFile(path, []byte(`{"summaries":[]}`), 0o640); err != nil {
		t.Fatal(err)
	}
	lock.Unlock()

	stats := <-done
	if stats.FilesRemoved != 0 {
		t.Fatalf("files removed = %d, want 0", stats.FilesRemoved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("freshly written collection was removed: %v", err)
	}
}

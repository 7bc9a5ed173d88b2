package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wirereport/wirereport/pkg/feed"
)

// DefaultRetention is the per-timeframe number of summaries kept by the
// count-based trim on save. Timeframes without an entry keep defaultKeep.
var DefaultRetention = map[feed.Timeframe]int{
	feed.Timeframe10m: 24,
	feed.Timeframe1h:  48,
	feed.Timeframe24h: 30,
}

const defaultKeep = 30

// SummaryStore persists generated summaries per channel and per timeframe.
// Each collection is an ordered list, newest first; periods are unique
// within a collection, and the count-based retention trim runs on save.
// The age-based sweep in CleanupOlderThan is a separate mechanism catching
// timeframes that stop receiving summaries altogether.
type SummaryStore struct {
	baseDir   string
	retention map[feed.Timeframe]int
	logger    *slog.Logger
	locks     *keyedLocks
}

// NewSummaryStore creates a store rooted at baseDir. A nil retention map
// uses DefaultRetention.
func NewSummaryStore(baseDir string, retention map[feed.Timeframe]int, logger *slog.Logger) *SummaryStore {
	if retention == nil {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryStore{
		baseDir:   baseDir,
		retention: retention,
		logger:    logger,
		locks:     newKeyedLocks(),
	}
}

// lockFor exposes the collection lock for a path to the sweeper.
func (s *SummaryStore) lockFor(path string) *sync.Mutex {
	return s.locks.get(path)
}

// collection mirrors the on-disk JSON document.
type collection struct {
	Summaries []feed.Summary `json:"summaries"`
}

func (s *SummaryStore) collectionPath(channel string, tf feed.Timeframe) string {
	return filepath.Join(s.baseDir, sanitizeName(channel), "summaries",
		string(tf)+"_summaries.json")
}

// keep returns the retention count for a timeframe.
func (s *SummaryStore) keep(tf feed.Timeframe) int {
	if n, ok := s.retention[tf]; ok && n > 0 {
		return n
	}
	return defaultKeep
}

// Save inserts a summary at the head of its channel+timeframe collection
// and trims the collection to the retention count. A summary whose exact
// period is already present is a logged no-op: duplicates are rejected,
// never merged.
func (s *SummaryStore) Save(channel string, summary feed.Summary) error {
	path := s.collectionPath(channel, summary.Timeframe)

	lock := s.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}

	col := s.loadCollection(path)

	for _, existing := range col.Summaries {
		if existing.SamePeriod(summary) {
			s.logger.Info("summary for period already exists, skipping",
				"channel", channel,
				"timeframe", string(summary.Timeframe),
				"period_start", summary.PeriodStart.Format(time.RFC3339),
			)
			return nil
		}
	}

	col.Summaries = append([]feed.Summary{summary}, col.Summaries...)
	if keep := s.keep(summary.Timeframe); len(col.Summaries) > keep {
		col.Summaries = col.Summaries[:keep]
	}

	data, err := json.MarshalIndent(col, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal summaries: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}

	s.logger.Info("saved summary",
		"channel", channel,
		"timeframe", string(summary.Timeframe),
		"count", len(col.Summaries),
	)
	return nil
}

// Latest returns the newest summary for a channel+timeframe, or false when
// the collection is empty or absent.
func (s *SummaryStore) Latest(channel string, tf feed.Timeframe) (feed.Summary, bool) {
	path := s.collectionPath(channel, tf)

	lock := s.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	col := s.loadCollection(path)
	if len(col.Summaries) == 0 {
		return feed.Summary{}, false
	}
	return col.Summaries[0], true
}

// LatestAny returns the most recent summary for a channel across all
// timeframes: the same-timeframe head when present, otherwise the head
// with the greatest PeriodEnd among every collection.
func (s *SummaryStore) LatestAny(channel string, preferred feed.Timeframe) (feed.Summary, bool) {
	if summary, ok := s.Latest(channel, preferred); ok {
		return summary, true
	}

	dir := filepath.Join(s.baseDir, sanitizeName(channel), "summaries")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return feed.Summary{}, false
	}

	var best feed.Summary
	var found bool
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, "_summaries.json") {
			continue
		}
		tf := feed.Timeframe(strings.TrimSuffix(name, "_summaries.json"))
		summary, ok := s.Latest(channel, tf)
		if !ok {
			continue
		}
		if !found || summary.PeriodEnd.After(best.PeriodEnd) {
			best = summary
			found = true
		}
	}
	return best, found
}

// Count returns the number of summaries in a channel+timeframe collection.
func (s *SummaryStore) Count(channel string, tf feed.Timeframe) int {
	path := s.collectionPath(channel, tf)

	lock := s.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	return len(s.loadCollection(path).Summaries)
}

// Recent returns up to limit summaries from a channel+timeframe collection,
// newest first.
func (s *SummaryStore) Recent(channel string, tf feed.Timeframe, limit int) []feed.Summary {
	path := s.collectionPath(channel, tf)

	lock := s.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	col := s.loadCollection(path)
	if limit > 0 && len(col.Summaries) > limit {
		return col.Summaries[:limit]
	}
	return col.Summaries
}

// Channels lists the channel partitions present on disk.
func (s *SummaryStore) Channels() []string {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil
	}
	var channels []string
	for _, entry := range entries {
		if entry.IsDir() {
			channels = append(channels, entry.Name())
		}
	}
	return channels
}

// loadCollection reads a collection file. A missing file is an empty
// collection; an unreadable or invalid one is quarantined with a .corrupt
// suffix and treated as empty so a bad file never takes the pipeline down.
func (s *SummaryStore) loadCollection(path string) collection {
	var col collection

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return col
	}
	if err != nil {
		s.logger.Error("summary collection unreadable, treating as empty",
			"path", path, "error", err)
		return collection{}
	}

	if err := json.Unmarshal(data, &col); err != nil {
		quarantine := path + ".corrupt." + time.Now().UTC().Format("20060102T150405")
		if renameErr := os.Rename(path, quarantine); renameErr != nil {
			s.logger.Error("failed to quarantine corrupt collection",
				"path", path, "error", renameErr)
		}
		s.logger.Error("corrupt summary collection, starting fresh",
			"path", path,
			"quarantined_as", quarantine,
			"error", err,
		)
		return collection{}
	}
	return col
}

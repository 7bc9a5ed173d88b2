package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// MessageLog is the append-only, per-channel, per-day log of formatted
// message records. Each record's identity key is its first line (the
// formatted timestamp); a record whose key is already present in the
// partition is silently dropped, which keeps re-ingestion of overlapping
// windows idempotent.
type MessageLog struct {
	baseDir string
	logger  *slog.Logger
	locks   *keyedLocks
}

// NewMessageLog creates a log rooted at baseDir.
func NewMessageLog(baseDir string, logger *slog.Logger) *MessageLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageLog{
		baseDir: baseDir,
		logger:  logger,
		locks:   newKeyedLocks(),
	}
}

// lockFor exposes the partition lock for a path to the sweeper.
func (l *MessageLog) lockFor(path string) *sync.Mutex {
	return l.locks.get(path)
}

// partitionPath returns the day partition file for a channel.
func (l *MessageLog) partitionPath(channel string, day time.Time) string {
	return filepath.Join(l.baseDir, sanitizeName(channel), "messages",
		day.UTC().Format("2006-01-02")+".txt")
}

// Append splits the delimited blob into records, drops those whose identity
// key already exists in the channel+day partition, and appends the rest in
// arrival order. It returns the number of records actually written.
//
// The rewritten partition is staged in a temp file and renamed into place,
// so a failed write never leaves a truncated record visible to readers.
func (l *MessageLog) Append(channel string, day time.Time, blob string) (int, error) {
	path := l.partitionPath(channel, day)

	lock := l.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	if err := ensureDir(filepath.Dir(path)); err != nil {
		return 0, err
	}

	incoming := splitRecords(blob)
	if len(incoming) == 0 {
		return 0, nil
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("store: read partition %s: %w", path, err)
	}

	seen := make(map[string]struct{})
	for _, rec := range splitRecords(string(existing)) {
		seen[recordKey(rec)] = struct{}{}
	}

	var novel []string
	for _, rec := range incoming {
		key := recordKey(rec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		novel = append(novel, rec)
	}

	if len(novel) == 0 {
		l.logger.Info("no new messages to append", "channel", channel)
		return 0, nil
	}

	var sb strings.Builder
	sb.Write(existing)
	for _, rec := range novel {
		sb.WriteString(rec)
		sb.WriteString(RecordDelimiter)
	}

	if err := writeFileAtomic(path, []byte(sb.String())); err != nil {
		return 0, err
	}

	l.logger.Info("appended message records",
		"channel", channel,
		"partition", filepath.Base(path),
		"written", len(novel),
		"skipped", len(incoming)-len(novel),
	)
	return len(novel), nil
}

// Count returns the number of records currently in a channel+day partition.
// It takes the partition's lock so a concurrent Append rewrite is never
// observed mid-flight.
func (l *MessageLog) Count(channel string, day time.Time) (int, error) {
	path := l.partitionPath(channel, day)

	lock := l.locks.get(path)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: read partition: %w", err)
	}
	return len(splitRecords(string(data))), nil
}

// splitRecords parses a delimited blob into trimmed, non-empty records.
func splitRecords(blob string) []string {
	var records []string
	for _, part := range strings.Split(blob, RecordDelimiter) {
		if rec := strings.TrimSpace(part); rec != "" {
			records = append(records, rec)
		}
	}
	return records
}

// recordKey derives a record's identity key: its leading line, the
// formatted timestamp.
func recordKey(record string) string {
	if i := strings.IndexByte(record, '\n'); i >= 0 {
		return record[:i]
	}
	return record
}

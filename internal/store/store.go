// Package store implements the persistent channel partitions: the
// append-only deduplicated message log and the per-channel per-timeframe
// summary collections.
//
// Layout under the data directory, one partition per channel:
//
//	<data>/<channel>/messages/<YYYY-MM-DD>.txt
//	<data>/<channel>/summaries/<timeframe>_summaries.json
//
// Write volume is low (one summary per channel per cadence), so whole-file
// read-modify-write through a temp file keeps every write atomic without an
// embedded database.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RecordDelimiter separates formatted message records in log partitions
// and in the text handed to the summarizer.
const RecordDelimiter = "\n---\n"

// keyedLocks hands out one mutex per key, created on first use.
// Serializes check-then-insert per (channel, timeframe) and per partition.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	return l
}

// sanitizeName makes a channel name safe to use as a directory name.
// Path separators and parent references collapse to underscores.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		name = "_"
	}
	return name
}

// ensureDir creates the directory if it does not exist.
func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("store: create %s: %w", path, err)
	}
	return nil
}

// writeFileAtomic stages content in a temp file in the same directory and
// renames it over the target, so readers never observe a truncated file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("store: stage %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: replace %s: %w", path, err)
	}
	return nil
}

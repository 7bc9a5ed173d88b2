package store

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CleanupStats reports what an age sweep removed.
type CleanupStats struct {
	FilesRemoved int
	BytesFreed   int64
}

// PathLocker is implemented by stores whose per-file locks the sweeper
// must hold before removing one of their files.
type PathLocker interface {
	lockFor(path string) *sync.Mutex
}

// Sweeper removes data files whose modification time is older than a
// retention age. It walks both message partitions and summary collections;
// mtime is the criterion, so a collection that keeps receiving summaries
// is never swept regardless of how old its oldest entry is.
type Sweeper struct {
	baseDir string
	logger  *slog.Logger
	stores  []PathLocker
}

// NewSweeper creates a sweeper over the same baseDir the stores use.
// The stores' per-path locks are taken before each removal so the sweep
// never races a concurrent Save or Append on the same file.
func NewSweeper(baseDir string, logger *slog.Logger, stores ...PathLocker) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{baseDir: baseDir, logger: logger, stores: stores}
}

// lockPath acquires every registered store's lock for a path, in
// registration order, and returns the unlock.
func (s *Sweeper) lockPath(path string) func() {
	held := make([]*sync.Mutex, 0, len(s.stores))
	for _, st := range s.stores {
		l := st.lockFor(path)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// Sweep removes every .txt and .json data file under baseDir older than
// maxAge. Errors on individual files are logged and skipped; the sweep
// keeps going and reports what it did remove.
func (s *Sweeper) Sweep(maxAge time.Duration) (CleanupStats, error) {
	cutoff := time.Now().Add(-maxAge)
	var stats CleanupStats

	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			s.logger.Warn("cleanup: cannot access path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".txt" && ext != ".json" {
			return nil
		}

		unlock := s.lockPath(path)
		defer unlock()

		// Fresh stat under the lock. The walk's DirEntry info may be
		// stale from directory-read time, and a store may have renamed a
		// new file into place while we waited for the lock.
		info, err := os.Stat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn("cleanup: cannot stat file", "path", path, "error", err)
			}
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		size := info.Size()
		if err := os.Remove(path); err != nil {
			s.logger.Warn("cleanup: cannot remove file", "path", path, "error", err)
			return nil
		}
		stats.FilesRemoved++
		stats.BytesFreed += size
		s.logger.Info("cleanup: removed stale file",
			"path", path,
			"age", time.Since(info.ModTime()).Round(time.Minute).String(),
			"bytes", size,
		)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, err
	}

	s.logger.Info("cleanup sweep complete",
		"files_removed", stats.FilesRemoved,
		"bytes_freed", stats.BytesFreed,
	)
	return stats, nil
}

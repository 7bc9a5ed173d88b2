//go:build unix

package app

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// minFreeBytes is the free-space floor for the data directory. Below it the
// process refuses to start rather than fail mid-write.
const minFreeBytes = 100 << 20

// warnFreeBytes triggers a startup warning so the operator can act before
// the floor is hit.
const warnFreeBytes = 500 << 20

// checkDiskSpace verifies the data directory's filesystem has room to
// operate.
func checkDiskSpace(rt *Runtime) error {
	var st unix.Statfs_t
	if err := unix.Statfs(rt.DataDir, &st); err != nil {
		// Statfs on a not-yet-created data dir fails; the stores create
		// it on first write, so probe the process cwd instead.
		if err := unix.Statfs(".", &st); err != nil {
			rt.Logger.Warn("disk space check skipped", "error", err)
			return nil
		}
	}

	free := st.Bavail * uint64(st.Bsize)
	switch {
	case free < minFreeBytes:
		return fmt.Errorf("app: only %d MiB free under %s, refusing to start", free>>20, rt.DataDir)
	case free < warnFreeBytes:
		rt.Logger.Warn("low disk space", "dir", rt.DataDir, "free_mib", free>>20)
	}
	return nil
}

//go:build !unix

package app

// checkDiskSpace is a no-op on platforms without statfs.
func checkDiskSpace(_ *Runtime) error {
	return nil
}

//go:build windows

package state

import (
	"os"

	"golang.org/x/sys/windows"
)

// lockRange is the byte range locked on the lock file. Any non-empty range
// works since every writer locks the same one.
const lockRange = 1

// lockExclusive blocks until f holds an exclusive lock.
func lockExclusive(f *os.File) error {
	return windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, lockRange, 0, new(windows.Overlapped))
}

func unlock(f *os.File) error {
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, lockRange, 0, new(windows.Overlapped))
}

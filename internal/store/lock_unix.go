//go:build unix

package store

import (
	"os"
	"syscall"
)

// lockFile takes a blocking exclusive flock(2) on the log file. The lock
// is released on unlock or when the process exits.
func lockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX)
}

func unlockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}

//go:build !unix

package store

import "os"

// Advisory locking is unix-only; other platforms fall back to unlocked
// appends.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }

//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd || windows)

package wal

import "os"

// lockFile does nothing on platforms without advisory locks. Exclusive ownership of the log file by a single process
// is a precondition there.
func lockFile(file *os.File) error {
	return nil
}

func unlockFile(file *os.File) error {
	return nil
}

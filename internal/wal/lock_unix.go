//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package wal

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// lockFile places an exclusive, non-blocking advisory lock on the file using flock(2). The lock belongs to the open
// file description, so a second open of the same path fails even within the same process.
func lockFile(file *os.File) error {
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil { //nolint:gosec // file descriptors fit into int
		if errors.Is(err, unix.EWOULDBLOCK) {
			return ErrLogLocked
		}
		return err
	}
	return nil
}

func unlockFile(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_UN) //nolint:gosec // file descriptors fit into int
}

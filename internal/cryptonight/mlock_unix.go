//go:build linux || darwin

package cryptonight

import "golang.org/x/sys/unix"

func lockPages(b []byte) error {
	return unix.Mlock(b)
}

func unlockPages(b []byte) {
	_ = unix.Munlock(b)
}

// probeLock checks that mlock works at all, typically constrained by
// RLIMIT_MEMLOCK for unprivileged processes.
func probeLock() error {
	probe := make([]byte, 4096)
	if err := unix.Mlock(probe); err != nil {
		return err
	}
	_ = unix.Munlock(probe)
	return nil
}

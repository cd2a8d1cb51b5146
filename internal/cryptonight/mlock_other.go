//go:build !linux && !darwin

package cryptonight

import "errors"

var errNoMlock = errors.New("page locking not supported on this platform")

func lockPages(b []byte) error { return errNoMlock }

func unlockPages(b []byte) {}

func probeLock() error { return errNoMlock }

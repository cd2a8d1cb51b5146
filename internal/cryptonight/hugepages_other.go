//go:build !linux

package cryptonight

import "errors"

var errNoHugePages = errors.New("huge pages not supported on this platform")

func mapHugePages(size int) ([]byte, error) { return nil, errNoHugePages }

func unmapPages(b []byte) {}

//go:build linux

package hardware

import "golang.org/x/sys/unix"

// PinCurrentThread binds the calling OS thread to a single CPU. The caller
// must have locked the goroutine to its thread first.
func PinCurrentThread(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}

// AffinityAdvisory reports whether thread affinity is only a scheduler hint
// on this platform.
func AffinityAdvisory() bool { return false }

//go:build !linux

package hardware

// PinCurrentThread is a no-op where the OS exposes no hard thread-affinity
// control; on macOS affinity is only advisory.
func PinCurrentThread(cpu int) error { return nil }

// AffinityAdvisory reports whether thread affinity is only a scheduler hint
// on this platform.
func AffinityAdvisory() bool { return true }

package mining

import "testing"

func TestStartNoncePartitionsEpochs(t *testing.T) {
	seen := make(map[uint32]bool)
	for resume := uint32(0); resume < 256; resume++ {
		n := startNonce(resume)
		if seen[n] {
			t.Fatalf("resume %d collides at nonce %#x", resume, n)
		}
		seen[n] = true
	}

	if startNonce(0) != 0 {
		t.Errorf("startNonce(0) = %#x, want 0", startNonce(0))
	}
	if startNonce(1) != 1<<24 {
		t.Errorf("startNonce(1) = %#x, want %#x", startNonce(1), uint32(1<<24))
	}
}

func TestNiceHashNoncePreservesPrefix(t *testing.T) {
	const seed = uint32(0xAB123456)

	for resume := uint32(0); resume < 64; resume++ {
		n := niceHashNonce(seed, resume)
		if n&niceHashPrefixMask != seed&niceHashPrefixMask {
			t.Fatalf("resume %d: prefix changed, got %#x", resume, n)
		}
	}

	// The low range must actually move between resume epochs.
	if niceHashNonce(seed, 0) == niceHashNonce(seed, 1) {
		t.Error("resume counter does not vary the nonce suffix")
	}
	if got := niceHashNonce(seed, 0); got != 0xAB000000 {
		t.Errorf("niceHashNonce(seed, 0) = %#x, want 0xAB000000", got)
	}
}

func TestBlobAccessors(t *testing.T) {
	blob := make([]byte, MaxBlobSize)
	writeNonce(blob, 0xDEADBEEF)
	if got := readNonce(blob); got != 0xDEADBEEF {
		t.Errorf("nonce roundtrip = %#x", got)
	}
	// The nonce field lives at its fixed offset, nowhere else.
	for i, b := range blob {
		if (i < nonceOffset || i >= nonceOffset+4) && b != 0 {
			t.Fatalf("byte %d touched by writeNonce", i)
		}
	}
}

package mining

const (
	// nonceStride partitions the 32-bit nonce space between resume epochs.
	nonceStride = 1 << 24

	// niceHashPrefixMask is the reserved high byte assigned by the upstream;
	// it must survive local nonce derivation untouched.
	niceHashPrefixMask = 0xFF000000
	// niceHashStride partitions the remaining 24-bit suffix between resume
	// epochs.
	niceHashStride = 1 << 18
)

// startNonce derives the first nonce for a plain job. Wrap at 32 bits is
// intentional; the nonce space recycles.
func startNonce(resumeCount uint32) uint32 {
	return resumeCount * nonceStride
}

// niceHashNonce derives the first nonce for a nicehash job: the seed's
// reserved prefix stays fixed, only the bounded suffix varies with the
// resume count.
func niceHashNonce(seed uint32, resumeCount uint32) uint32 {
	return seed&niceHashPrefixMask | (resumeCount*niceHashStride)&^niceHashPrefixMask
}

package commands

import (
	"github.com/google/uuid"

	"github.com/shizukutanaka/Kagura/internal/mining"
)

// syntheticBlobLen mirrors the CryptoNight hashing-blob size of a real pool
// job.
const syntheticBlobLen = 76

// syntheticJob builds a self-contained job for solo demo runs and benchmarks.
// The blob is seeded from a random UUID so repeated runs search different
// nonce neighborhoods.
func syntheticJob(target uint64, nicehash bool) mining.Job {
	id := uuid.New()

	job := mining.Job{
		BlobLen:  syntheticBlobLen,
		Target:   target,
		NiceHash: nicehash,
	}
	copy(job.ID[:], id.String())
	for off := 0; off < syntheticBlobLen; off += len(id) {
		copy(job.Blob[off:syntheticBlobLen], id[:])
	}
	return job
}

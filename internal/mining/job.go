package mining

import (
	"encoding/binary"

	"github.com/shizukutanaka/Kagura/internal/cryptonight"
)

const (
	// MaxBlobSize is the largest work blob the engine accepts.
	MaxBlobSize = 112
	// JobIDSize is the size of the opaque job identifier token.
	JobIDSize = 64

	// nonceOffset is the byte offset of the 32-bit nonce field inside the
	// work blob.
	nonceOffset = 39
	// hashValueOffset is the byte offset of the 64-bit value inside the hash
	// output that is compared against the target.
	hashValueOffset = 24
)

// Job is one unit of hashing assignment. It is an immutable snapshot once
// published: every field is a value, so assignment is a deep copy and a
// worker's private copy never aliases the shared record.
type Job struct {
	ID          [JobIDSize]byte
	Blob        [MaxBlobSize]byte
	BlobLen     int
	Target      uint64
	PoolID      int
	ResumeCount uint32
	// NiceHash keeps the externally assigned high nonce byte fixed.
	NiceHash bool
	// Stall marks the absence of real work; workers wait instead of hashing.
	Stall bool
}

// NewStalledJob returns the placeholder job workers hold before the first
// real assignment arrives.
func NewStalledJob() Job {
	return Job{Stall: true}
}

// readNonce returns the nonce field embedded in the blob.
func readNonce(blob []byte) uint32 {
	return binary.LittleEndian.Uint32(blob[nonceOffset : nonceOffset+4])
}

// writeNonce stores n into the blob's nonce field.
func writeNonce(blob []byte, n uint32) {
	binary.LittleEndian.PutUint32(blob[nonceOffset:nonceOffset+4], n)
}

// readHashValue extracts the numeric value of a lane digest for the target
// comparison, little-endian per the algorithm's native byte order.
func readHashValue(hash []byte) uint64 {
	return binary.LittleEndian.Uint64(hash[hashValueOffset : hashValueOffset+8])
}

// Result is a mined candidate: a nonce whose hash value fell below the job's
// target. Results are passed by value; nothing is shared with the worker
// after submission.
type Result struct {
	JobID [JobIDSize]byte
	Nonce uint32
	Hash  [cryptonight.HashSize]byte
}

// ResultSink receives mined candidates. Implementations must accept
// concurrent submissions from every worker thread.
type ResultSink interface {
	Submit(res Result, poolID int)
}

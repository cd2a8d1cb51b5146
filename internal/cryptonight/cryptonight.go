// Package cryptonight implements the scratchpad-backed hash family used by
// the mining workers. It is a pure-Go memory-hard construction over SHA3-256:
// each hash rewrites the lane's scratchpad from the input and then performs
// data-dependent mixing rounds over it, so the digest depends only on the
// input, never on context history. Entry points exist for batch widths
// 1, 2, 4, 5 and 6 sharing one implementation.
package cryptonight

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pbnjay/memory"
	"golang.org/x/crypto/sha3"
)

const (
	// ScratchpadSize is the per-lane scratch memory requirement.
	ScratchpadSize = 1 << 18

	// HashSize is the digest size of every entry point, per lane.
	HashSize = 32

	scratchBlocks = ScratchpadSize / HashSize
	mixRounds     = 64
)

// MaxBatch is the widest supported batch.
const MaxBatch = 6

var errNotInitialized = errors.New("cryptonight: Init not called")

var initialized bool

// Init prepares the global primitive state and verifies the requested memory
// mode works on this system: fastMem probes a huge-page mapping, lock probes
// page locking, and both check headroom for at least one scratchpad. Must be
// called before AllocContext.
func Init(fastMem, lock bool) error {
	if fastMem || lock {
		if free := memory.FreeMemory(); free > 0 && free < ScratchpadSize {
			return fmt.Errorf("cryptonight: %d bytes free, need %d for a pinned scratchpad",
				free, ScratchpadSize)
		}
	}
	if fastMem {
		probe, err := mapHugePages(ScratchpadSize)
		if err != nil {
			return fmt.Errorf("cryptonight: huge pages unavailable: %w", err)
		}
		unmapPages(probe)
	}
	if lock {
		if err := probeLock(); err != nil {
			return fmt.Errorf("cryptonight: memory locking unavailable: %w", err)
		}
	}
	initialized = true
	return nil
}

// Context holds one lane's scratch memory. A Context must only be used by a
// single lane at a time.
type Context struct {
	scratch []byte
	mapped  bool
	locked  bool
}

// AllocContext obtains a scratchpad for one lane. With fastMem set the
// scratchpad is backed by huge pages; with lock set the pages are pinned in
// physical memory. Either failure fails the allocation rather than silently
// degrading; the caller decides whether to retry with relaxed requirements.
func AllocContext(fastMem, lock bool) (*Context, error) {
	if !initialized {
		return nil, errNotInitialized
	}

	ctx := &Context{}
	if fastMem {
		scratch, err := mapHugePages(ScratchpadSize)
		if err != nil {
			return nil, fmt.Errorf("cryptonight: huge-page scratchpad: %w", err)
		}
		ctx.scratch = scratch
		ctx.mapped = true
	} else {
		ctx.scratch = make([]byte, ScratchpadSize)
	}

	if lock {
		if err := lockPages(ctx.scratch); err != nil {
			ctx.Free()
			return nil, fmt.Errorf("cryptonight: mlock scratchpad: %w", err)
		}
		ctx.locked = true
	}
	return ctx, nil
}

// Free releases the context's scratch memory. Safe on a nil receiver and
// idempotent.
func (c *Context) Free() {
	if c == nil || c.scratch == nil {
		return
	}
	if c.locked {
		unlockPages(c.scratch)
		c.locked = false
	}
	if c.mapped {
		unmapPages(c.scratch)
		c.mapped = false
	}
	c.scratch = nil
}

// Hash computes len(ctxs) lane hashes. in holds the lanes end to end, each
// laneLen bytes; out receives one HashSize digest per lane, end to end.
func Hash(in []byte, laneLen int, out []byte, ctxs []*Context) {
	for i, ctx := range ctxs {
		hashLane(ctx.scratch, in[i*laneLen:i*laneLen+laneLen], out[i*HashSize:(i+1)*HashSize])
	}
}

// HashSingle is the width-1 entry point.
func HashSingle(in []byte, out []byte, ctx *Context) {
	hashLane(ctx.scratch, in, out[:HashSize])
}

// HashDouble is the width-2 entry point.
func HashDouble(in []byte, laneLen int, out []byte, ctxs []*Context) {
	Hash(in, laneLen, out, ctxs[:2])
}

// HashQuad is the width-4 entry point.
func HashQuad(in []byte, laneLen int, out []byte, ctxs []*Context) {
	Hash(in, laneLen, out, ctxs[:4])
}

// HashPent is the width-5 entry point.
func HashPent(in []byte, laneLen int, out []byte, ctxs []*Context) {
	Hash(in, laneLen, out, ctxs[:5])
}

// HashHex is the width-6 entry point.
func HashHex(in []byte, laneLen int, out []byte, ctxs []*Context) {
	Hash(in, laneLen, out, ctxs[:6])
}

func hashLane(scratch, in, out []byte) {
	block := sha3.Sum256(in)
	for i := 0; i < scratchBlocks; i++ {
		copy(scratch[i*HashSize:(i+1)*HashSize], block[:])
		block = sha3.Sum256(block[:])
	}
	st := block
	for r := 0; r < mixRounds; r++ {
		off := int(binary.LittleEndian.Uint32(st[:4])%scratchBlocks) * HashSize
		for j := 0; j < HashSize; j++ {
			scratch[off+j] ^= st[j]
		}
		st = sha3.Sum256(scratch[off : off+HashSize])
	}
	copy(out, st[:])
}

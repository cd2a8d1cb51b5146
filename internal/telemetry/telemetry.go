// Package telemetry keeps per-thread rolling hashrate samples in fixed-size
// ring buffers. Each ring has exactly one writer (the owning mining thread);
// any number of readers may compute rates concurrently. Readers can observe a
// slightly stale cursor but never an out-of-bounds index: positions are
// masked, not bounds-checked.
package telemetry

import (
	"math"
	"sync/atomic"
	"time"
)

const (
	// bucketSize is the ring capacity. Must be a power of two.
	bucketSize = 1 << 12
	bucketMask = bucketSize - 1
)

// Telemetry holds one sample ring per mining thread.
type Telemetry struct {
	hashCounts [][]atomic.Uint64
	timestamps [][]atomic.Uint64
	bucketTop  []atomic.Uint32
}

// New creates rings for threads mining threads. A zero timestamp marks a slot
// that has never been written; rings start empty.
func New(threads int) *Telemetry {
	t := &Telemetry{
		hashCounts: make([][]atomic.Uint64, threads),
		timestamps: make([][]atomic.Uint64, threads),
		bucketTop:  make([]atomic.Uint32, threads),
	}
	for i := range t.hashCounts {
		t.hashCounts[i] = make([]atomic.Uint64, bucketSize)
		t.timestamps[i] = make([]atomic.Uint64, bucketSize)
	}
	return t
}

// Threads returns the number of per-thread rings.
func (t *Telemetry) Threads() int {
	return len(t.bucketTop)
}

// Push appends a sample for the given thread, overwriting the oldest slot
// once the ring is full. Only the owning thread may call this.
func (t *Telemetry) Push(thread int, hashCount, tsMillis uint64) {
	top := t.bucketTop[thread].Load()
	t.hashCounts[thread][top&bucketMask].Store(hashCount)
	t.timestamps[thread][top&bucketMask].Store(tsMillis)
	t.bucketTop[thread].Store(top + 1)
}

// Rate returns the thread's hashrate in H/s over the trailing window, or NaN
// when the ring does not yet span the full window.
func (t *Telemetry) Rate(thread int, window time.Duration) float64 {
	return t.rateAt(thread, uint64(window.Milliseconds()), uint64(time.Now().UnixMilli()))
}

func (t *Telemetry) rateAt(thread int, windowMillis, nowMillis uint64) float64 {
	var (
		earliestHashCnt uint64
		earliestStamp   uint64
		latestStamp     uint64
		latestHashCnt   uint64
		haveFullSet     bool
	)

	top := t.bucketTop[thread].Load()

	// Walk backward from the newest sample; top points at the next empty slot.
	for i := uint32(1); i < bucketSize; i++ {
		idx := (top - i) & bucketMask // cursor underflow expected here

		stamp := t.timestamps[thread][idx].Load()
		if stamp == 0 {
			break // ring has not wrapped this far yet
		}

		if latestStamp == 0 {
			latestStamp = stamp
			latestHashCnt = t.hashCounts[thread][idx].Load()
		}

		if nowMillis-stamp > windowMillis {
			haveFullSet = true
			break // out of the requested time period
		}

		earliestStamp = stamp
		earliestHashCnt = t.hashCounts[thread][idx].Load()
	}

	if !haveFullSet || earliestStamp == 0 || latestStamp == 0 {
		return math.NaN()
	}

	if latestStamp == earliestStamp {
		return math.NaN()
	}

	hashes := float64(latestHashCnt - earliestHashCnt)
	seconds := float64(latestStamp-earliestStamp) / 1000.0
	return hashes / seconds
}

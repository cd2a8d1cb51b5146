package config

import (
	"github.com/shizukutanaka/Kagura/internal/cryptonight"
	"github.com/shizukutanaka/Kagura/internal/hardware"
)

// autoThreads derives a thread layout from the host CPU: one pinned thread
// per physical core, widened while the L3 cache can hold the extra
// scratchpads. Hosts without AES acceleration stay at width 1; wider batches
// only pay off when the per-hash cost is low.
func autoThreads() []ThreadConfig {
	info := hardware.DetectCPU()

	cores := info.PhysicalCores
	if cores <= 0 {
		cores = 1
	}

	multiway := 1
	if info.AES && info.L3CacheBytes > 0 {
		perThread := info.L3CacheBytes / cores / cryptonight.ScratchpadSize
		for _, w := range []int{2, 4, 5, 6} {
			if perThread >= w {
				multiway = w
			}
		}
	}

	threads := make([]ThreadConfig, cores)
	for i := range threads {
		threads[i] = ThreadConfig{Multiway: multiway, Affinity: i}
	}
	return threads
}

// Package hardware detects CPU topology and features and pins mining threads
// to cores.
package hardware

import (
	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"
)

// CPUInfo describes the host processor as far as mining cares about it.
type CPUInfo struct {
	Model         string
	PhysicalCores int
	LogicalCores  int
	L3CacheBytes  int
	AES           bool
	AVX2          bool
	SHA           bool
}

// DetectCPU gathers processor information. Core counts fall back to the
// logical count when the physical count cannot be determined.
func DetectCPU() CPUInfo {
	info := CPUInfo{
		Model:        cpuid.CPU.BrandName,
		L3CacheBytes: cpuid.CPU.Cache.L3,
		AES:          cpuid.CPU.Supports(cpuid.AESNI),
		AVX2:         cpuid.CPU.Supports(cpuid.AVX2),
		SHA:          cpuid.CPU.Supports(cpuid.SHA),
	}

	if n, err := cpu.Counts(false); err == nil && n > 0 {
		info.PhysicalCores = n
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		info.LogicalCores = n
	}
	if info.PhysicalCores == 0 {
		info.PhysicalCores = info.LogicalCores
	}
	return info
}

// LogCPU writes the startup hardware banner.
func LogCPU(logger *zap.Logger, info CPUInfo) {
	logger.Info("Detected CPU",
		zap.String("model", info.Model),
		zap.Int("physical_cores", info.PhysicalCores),
		zap.Int("logical_cores", info.LogicalCores),
		zap.Int("l3_cache", info.L3CacheBytes),
		zap.Bool("aes", info.AES),
		zap.Bool("avx2", info.AVX2),
		zap.Bool("sha", info.SHA),
	)
}

package hardware

import "testing"

func TestDetectCPU(t *testing.T) {
	info := DetectCPU()

	if info.PhysicalCores <= 0 {
		t.Errorf("physical cores = %d", info.PhysicalCores)
	}
	if info.LogicalCores < info.PhysicalCores {
		t.Errorf("logical cores %d < physical cores %d", info.LogicalCores, info.PhysicalCores)
	}
}

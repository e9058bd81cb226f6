// Package system probes the host so launch flags can be tuned to it.
package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Info is a json-able snapshot of the host.
type Info struct {
	OS             string   `json:"os"`
	Arch           string   `json:"arch"`
	CPUModel       string   `json:"cpu_model,omitempty"`
	PhysicalCores  int      `json:"physical_cores"`
	LogicalCores   int      `json:"logical_cores"`
	TotalRAMMB     uint64   `json:"total_ram_mb"`
	AvailableRAMMB uint64   `json:"available_ram_mb"`
	SuggestedFlags []string `json:"suggested_flags,omitempty"`
}

const (
	// below this much total RAM the full model won't stay resident
	lowRAMThresholdMB = 8 * 1024
	medRAMThresholdMB = 16 * 1024
)

// Probe gathers host facts. Probe errors degrade to zero values rather than
// failing; a partial report is still useful.
func Probe() *Info {
	info := &Info{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if physical, err := cpu.Counts(false); err == nil {
		info.PhysicalCores = physical
	}
	if logical, err := cpu.Counts(true); err == nil {
		info.LogicalCores = logical
	}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalRAMMB = vm.Total / (1024 * 1024)
		info.AvailableRAMMB = vm.Available / (1024 * 1024)
	}

	info.SuggestedFlags = SuggestFlags(info.TotalRAMMB)
	return info
}

// SuggestFlags maps total RAM to the memory-pressure launch flags the A1111
// lineage understands.
func SuggestFlags(totalRAMMB uint64) []string {
	switch {
	case totalRAMMB == 0:
		return nil
	case totalRAMMB < lowRAMThresholdMB:
		return []string{"--lowvram"}
	case totalRAMMB < medRAMThresholdMB:
		return []string{"--medvram"}
	default:
		return nil
	}
}

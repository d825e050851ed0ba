// Package sysmon samples host resources for display. It never affects task
// state; the CLI invokes it purely to render a point-in-time snapshot.
package sysmon

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot is a point-in-time view of host resources.
type Snapshot struct {
	CPU    CPUInfo    `json:"cpu"`
	Memory MemoryInfo `json:"memory"`
	Disk   DiskInfo   `json:"disk"`
	GPUs   []GPUInfo  `json:"gpus,omitempty"`
}

// CPUInfo holds aggregate processor usage.
type CPUInfo struct {
	Percent float64 `json:"percent"`
	Count   int     `json:"count"`
}

// MemoryInfo holds virtual memory usage in bytes.
type MemoryInfo struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Percent float64 `json:"percent"`
}

// DiskInfo holds root filesystem usage in bytes.
type DiskInfo struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Percent float64 `json:"percent"`
}

// GPUInfo holds per-device utilization as reported by nvidia-smi.
type GPUInfo struct {
	Name        string `json:"name"`
	MemoryTotal int    `json:"memory_total_mb"`
	MemoryUsed  int    `json:"memory_used_mb"`
	Utilization int    `json:"utilization"`
}

// Monitor samples host resources.
type Monitor interface {
	Sample() (*Snapshot, error)
}

// HostMonitor implements Monitor with gopsutil plus an nvidia-smi probe.
type HostMonitor struct {
	// GPUTimeout bounds the nvidia-smi invocation.
	GPUTimeout time.Duration
}

// NewHostMonitor returns a Monitor for the local host.
func NewHostMonitor() *HostMonitor {
	return &HostMonitor{GPUTimeout: 10 * time.Second}
}

// Sample collects a resource snapshot. GPU information is best-effort:
// a missing or failing nvidia-smi simply yields no GPU entries.
func (m *HostMonitor) Sample() (*Snapshot, error) {
	percents, err := cpu.Percent(time.Second, false)
	if err != nil {
		return nil, fmt.Errorf("sample cpu: %w", err)
	}
	cpuPercent := 0.0
	if len(percents) > 0 {
		cpuPercent = percents[0]
	}
	count, err := cpu.Counts(true)
	if err != nil {
		count = 0
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("sample memory: %w", err)
	}

	du, err := disk.Usage("/")
	if err != nil {
		return nil, fmt.Errorf("sample disk: %w", err)
	}

	return &Snapshot{
		CPU:    CPUInfo{Percent: cpuPercent, Count: count},
		Memory: MemoryInfo{Total: vm.Total, Used: vm.Used, Percent: vm.UsedPercent},
		Disk:   DiskInfo{Total: du.Total, Used: du.Used, Percent: du.UsedPercent},
		GPUs:   m.sampleGPUs(),
	}, nil
}

// sampleGPUs queries nvidia-smi for per-device stats.
func (m *HostMonitor) sampleGPUs() []GPUInfo {
	ctx, cancel := context.WithTimeout(context.Background(), m.GPUTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total,memory.used,utilization.gpu",
		"--format=csv,noheader,nounits").Output()
	if err != nil {
		return nil
	}
	return parseGPUList(string(out))
}

// parseGPUList parses nvidia-smi csv,noheader,nounits output.
func parseGPUList(out string) []GPUInfo {
	var gpus []GPUInfo
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, ",")
		if len(parts) < 4 {
			continue
		}
		gpu := GPUInfo{Name: strings.TrimSpace(parts[0])}
		gpu.MemoryTotal, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
		gpu.MemoryUsed, _ = strconv.Atoi(strings.TrimSpace(parts[2]))
		gpu.Utilization, _ = strconv.Atoi(strings.TrimSpace(parts[3]))
		gpus = append(gpus, gpu)
	}
	return gpus
}

// Format renders a snapshot as human-readable lines.
func Format(s *Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CPU:    %.1f%% (%d cores)\n", s.CPU.Percent, s.CPU.Count)
	fmt.Fprintf(&b, "Memory: %s / %s (%.1f%%)\n",
		formatBytes(s.Memory.Used), formatBytes(s.Memory.Total), s.Memory.Percent)
	fmt.Fprintf(&b, "Disk:   %s / %s (%.1f%%)\n",
		formatBytes(s.Disk.Used), formatBytes(s.Disk.Total), s.Disk.Percent)

	if len(s.GPUs) == 0 {
		b.WriteString("GPU:    unavailable\n")
	} else {
		for i, gpu := range s.GPUs {
			fmt.Fprintf(&b, "GPU%d:   %s - %dMB/%dMB (%d%%)\n",
				i, gpu.Name, gpu.MemoryUsed, gpu.MemoryTotal, gpu.Utilization)
		}
	}
	return b.String()
}

// formatBytes renders a byte count in GB with one decimal.
func formatBytes(n uint64) string {
	const gb = 1 << 30
	return fmt.Sprintf("%.1fGB", float64(n)/gb)
}

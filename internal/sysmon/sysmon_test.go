package sysmon

import (
	"strings"
	"testing"
)

func TestParseGPUList(t *testing.T) {
	out := "NVIDIA A100-SXM4-40GB, 40960, 10240, 87\n" +
		"NVIDIA A100-SXM4-40GB, 40960, 0, 0\n"

	gpus := parseGPUList(out)
	if len(gpus) != 2 {
		t.Fatalf("got %d gpus, want 2", len(gpus))
	}
	if gpus[0].Name != "NVIDIA A100-SXM4-40GB" {
		t.Errorf("name = %q", gpus[0].Name)
	}
	if gpus[0].MemoryTotal != 40960 || gpus[0].MemoryUsed != 10240 {
		t.Errorf("memory = %d/%d", gpus[0].MemoryUsed, gpus[0].MemoryTotal)
	}
	if gpus[0].Utilization != 87 {
		t.Errorf("utilization = %d", gpus[0].Utilization)
	}
}

func TestParseGPUListMalformed(t *testing.T) {
	if gpus := parseGPUList(""); gpus != nil {
		t.Errorf("empty output parsed to %v", gpus)
	}
	if gpus := parseGPUList("garbage line"); gpus != nil {
		t.Errorf("short line parsed to %v", gpus)
	}
}

func TestFormat(t *testing.T) {
	snap := &Snapshot{
		CPU:    CPUInfo{Percent: 42.5, Count: 16},
		Memory: MemoryInfo{Total: 32 << 30, Used: 8 << 30, Percent: 25.0},
		Disk:   DiskInfo{Total: 500 << 30, Used: 250 << 30, Percent: 50.0},
	}

	out := Format(snap)
	for _, want := range []string{
		"CPU:    42.5% (16 cores)",
		"Memory: 8.0GB / 32.0GB (25.0%)",
		"Disk:   250.0GB / 500.0GB (50.0%)",
		"GPU:    unavailable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatWithGPU(t *testing.T) {
	snap := &Snapshot{
		GPUs: []GPUInfo{{Name: "RTX 4090", MemoryTotal: 24564, MemoryUsed: 1024, Utilization: 12}},
	}
	out := Format(snap)
	if !strings.Contains(out, "GPU0:   RTX 4090 - 1024MB/24564MB (12%)") {
		t.Errorf("Format output:\n%s", out)
	}
}

// Package status provides host and process metrics collection.
package status

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Metrics holds system resource usage.
type Metrics struct {
	CPUPercent    float64
	MemoryUsed    uint64
	MemoryTotal   uint64
	MemoryPercent float64
	DiskUsed      uint64
	DiskTotal     uint64
	DiskPercent   float64
}

// ProcessMetrics describes one running process.
type ProcessMetrics struct {
	PID        int32
	Name       string
	CPUPercent float64
	RSS        uint64
	Children   int
}

// Collector gathers metrics.
type Collector interface {
	Collect(ctx context.Context) (*Metrics, error)
	Process(ctx context.Context, pid int) (*ProcessMetrics, error)
}

// GopsutilCollector uses gopsutil for metrics.
type GopsutilCollector struct {
	diskPath string
}

// NewGopsutilCollector creates a collector reporting disk usage for diskPath.
// An empty path means the filesystem root.
func NewGopsutilCollector(diskPath string) *GopsutilCollector {
	if diskPath == "" {
		diskPath = "/"
	}
	return &GopsutilCollector{
		diskPath: diskPath,
	}
}

// Collect gathers current system metrics.
func (c *GopsutilCollector) Collect(ctx context.Context) (*Metrics, error) {
	var m Metrics

	// CPU
	cpuPercent, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("get cpu: %w", err)
	}
	if len(cpuPercent) > 0 {
		m.CPUPercent = cpuPercent[0]
	}

	// Memory
	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	m.MemoryUsed = memInfo.Used
	m.MemoryTotal = memInfo.Total
	m.MemoryPercent = memInfo.UsedPercent

	// Disk
	diskInfo, err := disk.UsageWithContext(ctx, c.diskPath)
	if err != nil {
		return nil, fmt.Errorf("get disk: %w", err)
	}
	m.DiskUsed = diskInfo.Used
	m.DiskTotal = diskInfo.Total
	m.DiskPercent = diskInfo.UsedPercent

	return &m, nil
}

// Process reports resource usage of a single process. Fields the platform
// cannot provide are left zero.
func (c *GopsutilCollector) Process(ctx context.Context, pid int) (*ProcessMetrics, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, fmt.Errorf("find process %d: %w", pid, err)
	}

	m := &ProcessMetrics{PID: p.Pid}
	if name, err := p.NameWithContext(ctx); err == nil {
		m.Name = name
	}
	if pct, err := p.CPUPercentWithContext(ctx); err == nil {
		m.CPUPercent = pct
	}
	if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
		m.RSS = mi.RSS
	}
	if children, err := p.ChildrenWithContext(ctx); err == nil {
		m.Children = len(children)
	}

	return m, nil
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

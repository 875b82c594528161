package stats

import (
	"context"
	"time"

	"github.com/rusenback/webtopd/internal/fault"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Host reads host-wide utilization percentages
type Host interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
	DiskPercent(ctx context.Context, path string) (float64, error)
}

// Probe is the gopsutil backed Host
type Probe struct {
	// Sample is how long CPU usage is measured over; 0 compares with the
	// previous call.
	Sample time.Duration
}

var _ Host = (*Probe)(nil)

func (p *Probe) CPUPercent(ctx context.Context) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, p.Sample, false)
	if err != nil {
		return 0, fault.Wrap(fault.KindIntrospection, err, "cpu percent")
	}
	if len(pcts) == 0 {
		return 0, fault.Errorf(fault.KindIntrospection, "cpu percent: no samples")
	}
	return pcts[0], nil
}

func (p *Probe) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fault.Wrap(fault.KindIntrospection, err, "virtual memory")
	}
	return vm.UsedPercent, nil
}

func (p *Probe) DiskPercent(ctx context.Context, path string) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, fault.Wrap(fault.KindIntrospection, err, "disk usage")
	}
	if usage.Total == 0 {
		return 0, nil
	}
	return float64(usage.Used) / float64(usage.Total) * 100, nil
}

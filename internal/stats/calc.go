// Package stats turns raw runtime counters into the dashboard's reporting
// shape and reads host-wide utilization.
package stats

import (
	"math"

	"github.com/rusenback/webtopd/internal/model"
)

const bytesPerMB = 1024 * 1024

// CPUPercent is cpu_delta / system_delta * 100.
// A non-positive delta yields 0.
func CPUPercent(raw model.RawStats) float64 {
	cpuDelta := float64(raw.CPUTotal) - float64(raw.PreCPUTotal)
	systemDelta := float64(raw.SystemUsage) - float64(raw.PreSystemUsage)

	if systemDelta > 0.0 && cpuDelta > 0.0 {
		return (cpuDelta / systemDelta) * 100.0
	}
	return 0.0
}

// MemoryPercent returns usage / limit * 100, 0 when the limit is unknown
func MemoryPercent(raw model.RawStats) float64 {
	if raw.MemoryLimit == 0 {
		return 0.0
	}
	return float64(raw.MemoryUsage) / float64(raw.MemoryLimit) * 100.0
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MB converts bytes to megabytes, rounded to two decimals
func MB(b uint64) float64 {
	return Round2(float64(b) / bytesPerMB)
}

// FromRaw builds the reporting shape from one set of counters
func FromRaw(raw model.RawStats) model.ContainerStats {
	return model.ContainerStats{
		Status:        raw.Status,
		CPUPercent:    Round2(CPUPercent(raw)),
		MemoryPercent: Round2(MemoryPercent(raw)),
		MemoryUsageMB: MB(raw.MemoryUsage),
		MemoryLimitMB: MB(raw.MemoryLimit),
		NetworkRx:     raw.NetworkRx,
		NetworkTx:     raw.NetworkTx,
	}
}

package model

import (
	"encoding/json"
	"time"

	"github.com/rusenback/webtopd/internal/fault"
)

// RawStats holds the counters read from the runtime for one container
type RawStats struct {
	Status string

	// CPU
	CPUTotal       uint64
	PreCPUTotal    uint64
	SystemUsage    uint64
	PreSystemUsage uint64

	// Memory
	MemoryUsage uint64
	MemoryLimit uint64

	// Network, summed over all interfaces
	NetworkRx uint64
	NetworkTx uint64
}

// ContainerStats is the reporting shape of a container's resource usage.
// When the runtime could not be reached only Error and ErrorKind are set.
type ContainerStats struct {
	Status        string  `json:"status,omitempty"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsageMB float64 `json:"memory_usage_mb"`
	MemoryLimitMB float64 `json:"memory_limit_mb"`
	NetworkRx     uint64  `json:"network_rx_bytes"`
	NetworkTx     uint64  `json:"network_tx_bytes"`

	Error     string     `json:"error,omitempty"`
	ErrorKind fault.Kind `json:"error_kind,omitempty"`
}

// Failed reports whether the stats carry an error marker
func (s ContainerStats) Failed() bool {
	return s.Error != ""
}

// MarshalJSON emits only the error marker for failed stats
func (s ContainerStats) MarshalJSON() ([]byte, error) {
	if s.Failed() {
		return json.Marshal(struct {
			Error     string     `json:"error"`
			ErrorKind fault.Kind `json:"error_kind,omitempty"`
		}{s.Error, s.ErrorKind})
	}
	type plain ContainerStats
	return json.Marshal(plain(s))
}

// SystemStats is the host-wide view plus counts of managed containers
type SystemStats struct {
	CPUUsage          float64 `json:"cpu_usage"`
	MemoryUsage       float64 `json:"memory_usage"`
	DiskUsage         float64 `json:"disk_usage"`
	ContainerCount    int     `json:"container_count"`
	RunningContainers int     `json:"running_containers"`
}

// ContainerUpdate is one entry of a container_updates batch
type ContainerUpdate struct {
	Name  string         `json:"name"`
	Stats ContainerStats `json:"stats"`
}

// HistoryPoint is one sample of a container's recorded history
type HistoryPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
}

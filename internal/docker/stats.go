// internal/docker/stats.go
package docker

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/rusenback/webtopd/internal/fault"
	"github.com/rusenback/webtopd/internal/model"
)

// ContainerStats hakee containerin tilan ja yhden stats-näytteen
func (c *Client) ContainerStats(ctx context.Context, name string) (*model.RawStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info, err := c.api.ContainerInspect(ctx, name)
	if err != nil {
		return nil, lookupError(err)
	}

	status := ""
	if info.ContainerJSONBase != nil && info.State != nil {
		status = info.State.Status
	}

	// Hae stats (stream: false = hae vain kerran)
	resp, err := c.api.ContainerStats(ctx, name, false)
	if err != nil {
		return nil, lookupError(err)
	}
	defer resp.Body.Close()

	return decodeStats(resp.Body, status)
}

// decodeStats reads one stats frame and keeps the counters the aggregator needs
func decodeStats(r io.Reader, status string) (*model.RawStats, error) {
	var stats types.StatsJSON
	if err := json.NewDecoder(r).Decode(&stats); err != nil {
		if err == io.EOF {
			return &model.RawStats{Status: status}, nil
		}
		return nil, fault.Wrap(fault.KindRuntime, err, "decode stats")
	}

	return rawStats(&stats, status), nil
}

func rawStats(stats *types.StatsJSON, status string) *model.RawStats {
	raw := &model.RawStats{
		Status:         status,
		CPUTotal:       stats.CPUStats.CPUUsage.TotalUsage,
		PreCPUTotal:    stats.PreCPUStats.CPUUsage.TotalUsage,
		SystemUsage:    stats.CPUStats.SystemUsage,
		PreSystemUsage: stats.PreCPUStats.SystemUsage,
		MemoryUsage:    stats.MemoryStats.Usage,
		MemoryLimit:    stats.MemoryStats.Limit,
	}

	// summed over every interface
	for _, network := range stats.Networks {
		raw.NetworkRx += network.RxBytes
		raw.NetworkTx += network.TxBytes
	}

	return raw
}

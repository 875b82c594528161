package fleet

import (
	"context"
	"time"

	"github.com/rusenback/webtopd/internal/model"
	"github.com/rusenback/webtopd/internal/storage"
)

// HistoryWriter queues samples for persistence
type HistoryWriter interface {
	Write(entry *storage.StatsEntry)
}

// Recorder is a Sink that records each container_updates batch into the
// stats history. Failed entries are skipped.
type Recorder struct {
	History HistoryWriter
	Now     func() time.Time
}

func (r *Recorder) Send(ctx context.Context, msg model.Message) error {
	if msg.Type != model.MessageContainerUpdates {
		return nil
	}

	updates, ok := msg.Data.([]model.ContainerUpdate)
	if !ok {
		return nil
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	for _, u := range updates {
		if u.Stats.Failed() {
			continue
		}

		r.History.Write(&storage.StatsEntry{
			Container:     u.Name,
			Timestamp:     now,
			CPUPercent:    u.Stats.CPUPercent,
			MemoryPercent: u.Stats.MemoryPercent,
			MemoryUsage:   uint64(u.Stats.MemoryUsageMB * 1024 * 1024),
			MemoryLimit:   uint64(u.Stats.MemoryLimitMB * 1024 * 1024),
			NetworkRx:     u.Stats.NetworkRx,
			NetworkTx:     u.Stats.NetworkTx,
		})
	}

	return nil
}

// Package fleet assembles the dashboard's view of the fleet: system stats,
// the registry joined with live stats, and the periodic poll loop that
// pushes both to a channel.
package fleet

import (
	"context"

	"github.com/convox/logger"
	"github.com/rusenback/webtopd/internal/docker"
	"github.com/rusenback/webtopd/internal/model"
	"github.com/rusenback/webtopd/internal/registry"
	"github.com/rusenback/webtopd/internal/stats"
)

// RegistryReader loads the current registry
type RegistryReader interface {
	Load() (*registry.Registry, error)
}

// Service reads fleet state. All collaborators are injected.
type Service struct {
	Registry   RegistryReader
	Runtime    docker.Runtime
	Host       stats.Host
	Aggregator *stats.Aggregator
	Prefix     string
	DiskPath   string
	Logger     *logger.Logger
}

// SystemStats is best effort: every metric that cannot be read is reported
// as zero and the call never fails.
func (s *Service) SystemStats(ctx context.Context) model.SystemStats {
	log := s.Logger.At("system")
	var out model.SystemStats

	if v, err := s.Host.CPUPercent(ctx); err != nil {
		log.Error(err)
	} else {
		out.CPUUsage = stats.Round2(v)
	}

	if v, err := s.Host.MemoryPercent(ctx); err != nil {
		log.Error(err)
	} else {
		out.MemoryUsage = stats.Round2(v)
	}

	if v, err := s.Host.DiskPercent(ctx, s.diskPath()); err != nil {
		log.Error(err)
	} else {
		out.DiskUsage = stats.Round2(v)
	}

	containers, err := s.Runtime.ListContainers(ctx, s.Prefix)
	if err != nil {
		log.Error(err)
		return out
	}

	out.ContainerCount = len(containers)
	for _, c := range containers {
		if c.Running() {
			out.RunningContainers++
		}
	}

	return out
}

// Containers joins every registry entry with its current stats, in registry
// order. Names unknown to the runtime carry an error marker.
func (s *Service) Containers(ctx context.Context) ([]model.ContainerView, error) {
	reg, err := s.Registry.Load()
	if err != nil {
		return nil, err
	}

	names := reg.Names()
	updates := s.Aggregator.Fleet(ctx, names)

	views := make([]model.ContainerView, len(names))
	for i, name := range names {
		raw, _ := reg.Raw(name)
		views[i] = model.ContainerView{Name: name, Config: raw, Stats: updates[i].Stats}
	}

	return views, nil
}

// Updates aggregates every registry name, in registry order. An unreadable
// registry yields an empty batch.
func (s *Service) Updates(ctx context.Context) []model.ContainerUpdate {
	reg, err := s.Registry.Load()
	if err != nil {
		s.Logger.At("updates").Error(err)
		return []model.ContainerUpdate{}
	}

	return s.Aggregator.Fleet(ctx, reg.Names())
}

func (s *Service) diskPath() string {
	if s.DiskPath == "" {
		return "."
	}
	return s.DiskPath
}

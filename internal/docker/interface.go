// internal/docker/interface.go
package docker

import (
	"context"

	"github.com/rusenback/webtopd/internal/model"
)

// Runtime is the container runtime surface the dashboard consumes. Names are
// full runtime names (prefix included).
type Runtime interface {
	ListContainers(ctx context.Context, prefix string) ([]model.Container, error)
	ContainerStats(ctx context.Context, name string) (*model.RawStats, error)
	StartContainer(ctx context.Context, name string) error
	StopContainer(ctx context.Context, name string) error
	RestartContainer(ctx context.Context, name string) error
	ContainerLogs(ctx context.Context, name string, lines int) (string, error)
	ContainerProcesses(ctx context.Context, name string) ([]model.Process, error)
	Close() error
}

// Varmista että Client toteuttaa interfacen
var _ Runtime = (*Client)(nil)

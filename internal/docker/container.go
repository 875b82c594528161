// internal/docker/container.go
package docker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/errdefs"
	"github.com/rusenback/webtopd/internal/fault"
	"github.com/rusenback/webtopd/internal/model"
)

// ListContainers palauttaa kaikki containerit joiden nimi alkaa prefixillä
// (running + stopped)
func (c *Client) ListContainers(ctx context.Context, prefix string) ([]model.Container, error) {
	opts := container.ListOptions{All: true}
	if prefix != "" {
		opts.Filters = filters.NewArgs(filters.Arg("name", prefix))
	}

	containers, err := c.api.ContainerList(ctx, opts)
	if err != nil {
		return nil, fault.Wrap(fault.KindRuntime, err, "list containers")
	}

	return convertContainers(containers, prefix), nil
}

// convertContainers keeps only names starting with prefix; the runtime's name
// filter is a substring match.
func convertContainers(containers []types.Container, prefix string) []model.Container {
	result := make([]model.Container, 0, len(containers))
	for _, cont := range containers {
		if len(cont.Names) == 0 {
			continue
		}

		// Poista "/" container nimen alusta jos on
		name := strings.TrimPrefix(cont.Names[0], "/")
		if !strings.HasPrefix(name, prefix) {
			continue
		}

		id := cont.ID
		if len(id) > 12 {
			id = id[:12] // Lyhyt ID
		}

		result = append(result, model.Container{
			ID:      id,
			Name:    name,
			Image:   cont.Image,
			Status:  cont.Status,
			State:   cont.State,
			Created: time.Unix(cont.Created, 0),
		})
	}

	return result
}

// StartContainer käynnistää containerin
func (c *Client) StartContainer(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return lookupError(c.api.ContainerStart(ctx, name, container.StartOptions{}))
}

// StopContainer pysäyttää containerin
func (c *Client) StopContainer(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	timeout := 10 // Sekuntia
	return lookupError(c.api.ContainerStop(ctx, name, container.StopOptions{
		Timeout: &timeout,
	}))
}

// RestartContainer uudelleenkäynnistää containerin
func (c *Client) RestartContainer(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	timeout := 10
	return lookupError(c.api.ContainerRestart(ctx, name, container.StopOptions{
		Timeout: &timeout,
	}))
}

// lookupError tags runtime errors; deadlines become timeouts
func lookupError(err error) error {
	switch {
	case err == nil:
		return nil
	case errdefs.IsDeadline(err), errors.Is(err, context.DeadlineExceeded):
		return fault.New(fault.KindTimeout, err)
	default:
		return fault.New(fault.KindRuntime, err)
	}
}

// internal/docker/logs.go
package docker

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/rusenback/webtopd/internal/fault"
)

// ContainerLogs returns the last lines of a container's combined output
func (c *Client) ContainerLogs(ctx context.Context, name string, lines int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info, err := c.api.ContainerInspect(ctx, name)
	if err != nil {
		return "", lookupError(err)
	}

	reader, err := c.api.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(lines), // Get last N lines
	})
	if err != nil {
		return "", lookupError(err)
	}
	defer reader.Close()

	tty := info.Config != nil && info.Config.Tty
	return readLogs(reader, tty)
}

// readLogs strips the multiplexing headers the engine adds when the
// container has no TTY
func readLogs(r io.Reader, tty bool) (string, error) {
	var buf bytes.Buffer

	if tty {
		if _, err := io.Copy(&buf, r); err != nil {
			return "", fault.Wrap(fault.KindRuntime, err, "read logs")
		}
		return buf.String(), nil
	}

	if _, err := stdcopy.StdCopy(&buf, &buf, r); err != nil {
		return "", fault.Wrap(fault.KindRuntime, err, "read logs")
	}

	return buf.String(), nil
}

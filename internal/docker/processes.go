package docker

import (
	"context"
	"time"

	"github.com/rusenback/webtopd/internal/model"
)

// ContainerProcesses retrieves the top processes running in a container
func (c *Client) ContainerProcesses(ctx context.Context, name string) ([]model.Process, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Args: ps -aux format for better information
	top, err := c.api.ContainerTop(ctx, name, []string{"aux"})
	if err != nil {
		return nil, lookupError(err)
	}

	return parseTop(top.Titles, top.Processes, 10), nil
}

// parseTop maps ps columns by title; rows missing a column are skipped
func parseTop(titles []string, rows [][]string, limit int) []model.Process {
	processes := make([]model.Process, 0)

	// Find column indices
	pidIdx, userIdx, cpuIdx, memIdx, cmdIdx := -1, -1, -1, -1, -1
	for i, title := range titles {
		switch title {
		case "PID":
			pidIdx = i
		case "USER", "UID":
			userIdx = i
		case "%CPU":
			cpuIdx = i
		case "%MEM":
			memIdx = i
		case "COMMAND", "CMD":
			cmdIdx = i
		}
	}

	if pidIdx < 0 || cmdIdx < 0 {
		return processes
	}

	for _, proc := range rows {
		if len(proc) <= pidIdx || len(proc) <= cmdIdx {
			continue
		}

		processes = append(processes, model.Process{
			PID:     getOrEmpty(proc, pidIdx),
			User:    getOrEmpty(proc, userIdx),
			CPU:     getOrEmpty(proc, cpuIdx),
			Memory:  getOrEmpty(proc, memIdx),
			Command: getOrEmpty(proc, cmdIdx),
		})

		if limit > 0 && len(processes) == limit {
			break
		}
	}

	return processes
}

func getOrEmpty(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rusenback/webtopd/internal/client"
	"github.com/rusenback/webtopd/internal/model"
	"github.com/rusenback/webtopd/internal/storage"
)

// tickCmd drives reconnects and the detail refresh of the selected container
func tickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func connect(ctx context.Context, c Client) tea.Cmd {
	return func() tea.Msg {
		events, errs, err := c.Subscribe(ctx)
		return connectedMsg{events: events, errs: errs, err: err}
	}
}

// waitForEvent waits for the next push message
func waitForEvent(events <-chan client.Event, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{err: <-errs}
		}
		return eventMsg{event: ev}
	}
}

func fetchLogs(ctx context.Context, c Client, name string) tea.Cmd {
	return func() tea.Msg {
		logs, err := c.Logs(ctx, name, logLines)
		return logsMsg{name: name, logs: logs, err: err}
	}
}

func fetchProcesses(ctx context.Context, c Client, name string) tea.Cmd {
	return func() tea.Msg {
		procs, err := c.Processes(ctx, name)
		return processesMsg{name: name, processes: procs, err: err}
	}
}

func fetchHistory(ctx context.Context, c Client, name string, tr storage.TimeRange) tea.Cmd {
	return func() tea.Msg {
		points, err := c.History(ctx, name, tr.String())
		return historyMsg{name: name, points: points, err: err}
	}
}

type action func(ctx context.Context, name string) (model.CommandResult, error)

// runAction forwards start/stop/restart and reports the outcome
func runAction(ctx context.Context, fn action, verb, name string) tea.Cmd {
	return func() tea.Msg {
		res, err := fn(ctx, name)
		if err != nil {
			return actionMsg{err: err}
		}
		if !res.Success {
			return actionMsg{err: fmt.Errorf("%s %s: %s", verb, name, resultError(res))}
		}
		msg := res.Message
		if msg == "" {
			msg = fmt.Sprintf("%s: %s", verb, name)
		}
		return actionMsg{message: msg}
	}
}

func resultError(res model.CommandResult) string {
	switch {
	case res.Error != "":
		return res.Error
	case res.Stderr != "":
		return lastLine(res.Stderr)
	}
	return "failed"
}

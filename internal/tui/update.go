package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rusenback/webtopd/internal/fault"
	"github.com/rusenback/webtopd/internal/model"
	"github.com/rusenback/webtopd/internal/storage"
)

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if !m.connected && !m.authFailed {
			cmds = append(cmds, connect(m.ctx, m.client))
		}
		if m.selected != "" {
			cmds = append(cmds, m.refreshSelected())
		}
		return m, tea.Batch(cmds...)

	case connectedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.authFailed = fault.Is(msg.err, fault.KindAuth)
			return m, nil
		}
		m.err = nil
		m.connected = true
		m.events = msg.events
		m.errs = msg.errs
		return m, waitForEvent(m.events, m.errs)

	case streamClosedMsg:
		m.connected = false
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case eventMsg:
		var cmd tea.Cmd
		if msg.event.System != nil {
			m.system = *msg.event.System
		} else {
			cmd = m.applyUpdates(msg.event.Updates)
		}
		return m, tea.Batch(cmd, waitForEvent(m.events, m.errs))

	case actionMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.message = msg.message
		}

	case logsMsg:
		if msg.name != m.selected {
			return m, nil
		}
		if msg.err != nil {
			m.message = fmt.Sprintf("Logs error: %v", msg.err)
			return m, nil
		}
		m.logs = splitLogs(msg.logs)
		if m.logsAutoScroll {
			m.logsScroll = m.calculateMaxScroll()
		} else if m.logsScroll > m.calculateMaxScroll() {
			m.logsScroll = m.calculateMaxScroll()
		}

	case processesMsg:
		if msg.name == m.selected && msg.err == nil {
			m.processes = msg.processes
		}

	case historyMsg:
		// history may be disabled server-side; the in-memory samples remain
		if msg.name == m.selected && msg.err == nil {
			m.history = msg.points
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.cancel()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			return m, m.selectCursor()
		}

	case "down", "j":
		if m.cursor < len(m.containers)-1 {
			m.cursor++
			return m, m.selectCursor()
		}

	case "pgup":
		step := halfPage(m.calculateVisibleLogLines())
		m.logsScroll -= step
		if m.logsScroll < 0 {
			m.logsScroll = 0
		}
		m.logsAutoScroll = false

	case "pgdown":
		step := halfPage(m.calculateVisibleLogLines())
		maxScroll := m.calculateMaxScroll()
		m.logsScroll += step
		if m.logsScroll >= maxScroll {
			m.logsScroll = maxScroll
			m.logsAutoScroll = true
		}

	case "home":
		m.logsScroll = 0
		m.logsAutoScroll = false

	case "end":
		m.logsScroll = m.calculateMaxScroll()
		m.logsAutoScroll = true

	case "a":
		m.logsAutoScroll = !m.logsAutoScroll
		if m.logsAutoScroll {
			m.logsScroll = m.calculateMaxScroll()
		}

	case "c":
		m.logs = nil
		m.logsScroll = 0

	case "s":
		if m.selected != "" {
			return m, runAction(m.ctx, m.client.Start, "Started", m.selected)
		}

	case "x":
		if m.selected != "" {
			return m, runAction(m.ctx, m.client.Stop, "Stopped", m.selected)
		}

	case "r":
		if m.selected != "" {
			return m, runAction(m.ctx, m.client.Restart, "Restarted", m.selected)
		}

	case "R":
		if m.selected != "" {
			m.message = "Refreshing..."
			return m, m.refreshSelected()
		}

	case "1", "2", "3", "4", "5":
		m.timeRange = storage.TimeRange(msg.String()[0] - '1')
		m.history = nil
		if m.selected != "" {
			return m, fetchHistory(m.ctx, m.client, m.selected, m.timeRange)
		}
	}

	return m, nil
}

// applyUpdates takes a container_updates batch: it replaces the list, records
// samples and keeps the selection on the same name where possible
func (m *Model) applyUpdates(updates []model.ContainerUpdate) tea.Cmd {
	m.containers = updates

	seen := make(map[string]bool, len(updates))
	for _, u := range updates {
		seen[u.Name] = true
		if u.Stats.Failed() {
			continue
		}
		m.cpuHistory[u.Name] = appendCapped(m.cpuHistory[u.Name], u.Stats.CPUPercent)
		m.memHistory[u.Name] = appendCapped(m.memHistory[u.Name], u.Stats.MemoryPercent)
	}

	for name := range m.cpuHistory {
		if !seen[name] {
			delete(m.cpuHistory, name)
			delete(m.memHistory, name)
		}
	}

	for i, u := range updates {
		if u.Name == m.selected {
			m.cursor = i
			return nil
		}
	}

	if m.cursor >= len(updates) {
		m.cursor = len(updates) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	return m.selectCursor()
}

// selectCursor makes the container under the cursor the selected one and
// resets its detail views
func (m *Model) selectCursor() tea.Cmd {
	if len(m.containers) == 0 {
		m.selected = ""
		m.logs = nil
		m.processes = nil
		m.history = nil
		return nil
	}

	name := m.containers[m.cursor].Name
	if name == m.selected {
		return nil
	}

	m.selected = name
	m.logs = nil
	m.logsScroll = 0
	m.logsAutoScroll = true
	m.processes = nil
	m.history = nil

	return m.refreshSelected()
}

func (m Model) refreshSelected() tea.Cmd {
	return tea.Batch(
		fetchLogs(m.ctx, m.client, m.selected),
		fetchProcesses(m.ctx, m.client, m.selected),
		fetchHistory(m.ctx, m.client, m.selected, m.timeRange),
	)
}

func appendCapped(data []float64, v float64) []float64 {
	data = append(data, v)
	if len(data) > maxDataPoints {
		data = data[len(data)-maxDataPoints:]
	}
	return data
}

func splitLogs(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > maxLogs {
		lines = lines[len(lines)-maxLogs:]
	}
	return lines
}

func halfPage(visible int) int {
	if visible/2 < 1 {
		return 1
	}
	return visible / 2
}

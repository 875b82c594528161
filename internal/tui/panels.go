package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// renderContainerListPanel renders the container list panel
func (m Model) renderContainerListPanel(width, height int) string {
	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(m.renderListPanelContent(width, height))
}

func (m Model) renderListPanelContent(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("🖥  Webtop Containers"))
	if m.connected {
		s.WriteString("  " + runningStyle.Render("● live"))
	} else {
		s.WriteString("  " + stoppedStyle.Render("○ offline"))
	}
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(stoppedStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n")
	}

	if !m.connected && len(m.containers) == 0 {
		s.WriteString("Waiting for the first update...\n")
		return s.String()
	}

	running := 0
	for _, c := range m.containers {
		if c.Stats.Status == "running" {
			running++
		}
	}
	s.WriteString(fmt.Sprintf("%d registered, %d running\n\n", len(m.containers), running))

	colWidth := width - 10
	nameWidth := colWidth - 10 - 8 - 8 - 10 - 10 - 5
	if nameWidth < 8 {
		nameWidth = 8
	}

	header := fmt.Sprintf("%-*s %-10s %8s %8s %10s %10s",
		nameWidth, "NAME", "STATUS", "CPU", "MEM", "RX", "TX")
	s.WriteString(headerStyle.Render(header) + "\n")

	if len(m.containers) == 0 {
		s.WriteString("\nNo containers registered\n")
	}

	maxContainers := height - 12
	for i, c := range m.containers {
		if i >= maxContainers {
			s.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(m.containers)-i)) + "\n")
			break
		}

		name := truncate(c.Name, nameWidth)

		var line string
		if c.Stats.Failed() {
			line = fmt.Sprintf("%-*s %s", nameWidth, name, failedStyle.Render(truncate(c.Stats.Error, colWidth-nameWidth-1)))
		} else {
			status := statusStyle(c.Stats.Status).Render(fmt.Sprintf("%-10s", truncate(c.Stats.Status, 10)))
			line = fmt.Sprintf("%-*s %s %7.2f%% %7.2f%% %10s %10s",
				nameWidth, name,
				status,
				c.Stats.CPUPercent,
				c.Stats.MemoryPercent,
				humanize.IBytes(c.Stats.NetworkRx),
				humanize.IBytes(c.Stats.NetworkTx),
			)
		}

		if i == m.cursor {
			s.WriteString(selectedStyle.Render("> " + line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}

	if m.message != "" {
		s.WriteString("\n" + m.message + "\n")
	}

	help := "\n[↑/k] up  [↓/j] down  [s] start  [x] stop  [r] restart  [R] refresh  [q] quit"
	s.WriteString(helpStyle.Render(help))

	return s.String()
}

// renderStatsPanel renders the host and selected container stats
func (m Model) renderStatsPanel(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("📊 Stats") + "\n\n")
	s.WriteString(RenderSystem(m.system) + "\n\n")

	if m.selected == "" {
		s.WriteString("No container selected")
	} else {
		s.WriteString(RenderStats(m.containers[m.cursor], m.processes))
	}

	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(s.String())
}

// renderGraphPanel prefers recorded history and falls back to the samples
// seen on the push channel
func (m Model) renderGraphPanel(width, height int) string {
	var cpu, mem []float64
	source := "live"

	if len(m.history) > 0 {
		cpu = make([]float64, len(m.history))
		mem = make([]float64, len(m.history))
		for i, p := range m.history {
			cpu[i] = p.CPUPercent
			mem[i] = p.MemoryPercent
		}
		source = "recorded"
	} else if m.selected != "" {
		cpu = m.cpuHistory[m.selected]
		mem = m.memHistory[m.selected]
	}

	content := renderDualGraphWithRange(cpu, mem, width-4, height-4, m.timeRange, source)

	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(content)
}

// renderLogPanel renders the log panel
func (m Model) renderLogPanel(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("📋 Log Preview") + "\n\n")

	if m.selected == "" {
		s.WriteString("No container selected")
		return panelStyle.Width(width - 4).Height(height - 4).Render(s.String())
	}

	s.WriteString(fmt.Sprintf("Container: %s", m.selected))
	if m.logsAutoScroll {
		s.WriteString(" [Auto-scroll: ON]")
	}
	s.WriteString("\n\n")

	if len(m.logs) == 0 {
		s.WriteString("No logs yet...")
		return panelStyle.Width(width - 4).Height(height - 4).Render(s.String())
	}

	visibleLines := height - 8
	if visibleLines < 1 {
		visibleLines = 1
	}

	total := len(m.logs)
	start := m.logsScroll
	if start > total-visibleLines {
		start = total - visibleLines
	}
	if start < 0 {
		start = 0
	}
	end := start + visibleLines
	if end > total {
		end = total
	}

	maxLineWidth := width - 8
	lines := make([]string, 0, end-start)
	for _, line := range m.logs[start:end] {
		lines = append(lines, styleLogLine(line, maxLineWidth))
	}
	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, lines...))

	if total > visibleLines {
		s.WriteString(fmt.Sprintf("\n[%d/%d] PgUp/PgDown:scroll | a:toggle auto | c:clear", start+1, total))
	}

	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(s.String())
}

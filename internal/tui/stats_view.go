package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
	"github.com/rusenback/webtopd/internal/model"
)

const barLength = 30

func renderBar(percent float64, length int) string {
	filled := int(percent / 100 * float64(length))
	if filled > length {
		filled = length
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("─", length-filled)
}

func colorize(percent float64, text string) string {
	return lipgloss.NewStyle().Foreground(usageColor(percent)).Render(text)
}

// mbBytes converts the MB figures of the wire format back to bytes
func mbBytes(mb float64) float64 {
	return mb * 1024 * 1024
}

// RenderSystem renders the host line of the stats panel
func RenderSystem(s model.SystemStats) string {
	line := func(label string, v float64) string {
		return fmt.Sprintf("%-5s %6.2f%% |%s|", label, v, colorize(v, renderBar(v, barLength/2)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")).Render("Host"),
		line("CPU", s.CPUUsage),
		line("MEM", s.MemoryUsage),
		line("DISK", s.DiskUsage),
		fmt.Sprintf("Containers: %d running / %d total", s.RunningContainers, s.ContainerCount),
	)
}

// RenderStats renders the statistics for a container
func RenderStats(u model.ContainerUpdate, processes []model.Process) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#F5C2E7")).
		Render("Container: " + u.Name)

	if u.Stats.Failed() {
		return lipgloss.JoinVertical(lipgloss.Left,
			title,
			failedStyle.Render(fmt.Sprintf("%s (%s)", u.Stats.Error, u.Stats.ErrorKind)),
		)
	}

	st := u.Stats

	cpuStr := fmt.Sprintf("%6.2f%% |%s|", st.CPUPercent, renderBar(st.CPUPercent, barLength))
	cpuBox := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#89B4FA")).
		Padding(0, 1).
		Render("CPU\n" + colorize(st.CPUPercent, cpuStr))

	memStr := fmt.Sprintf("%s / %s (%.2f%%) |%s|",
		units.BytesSize(mbBytes(st.MemoryUsageMB)),
		units.BytesSize(mbBytes(st.MemoryLimitMB)),
		st.MemoryPercent,
		renderBar(st.MemoryPercent, barLength))
	memBox := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#A6E3A1")).
		Padding(0, 1).
		Render("MEM\n" + colorize(st.MemoryPercent, memStr))

	netStr := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#89B4FA")).
		Render(fmt.Sprintf("Network: Rx: %s | Tx: %s", humanize.IBytes(st.NetworkRx), humanize.IBytes(st.NetworkTx)))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		statusStyle(st.Status).Render("Status: "+st.Status),
		cpuBox,
		memBox,
		netStr,
		renderProcesses(processes),
	)
}

// renderProcesses renders the top processes table
func renderProcesses(processes []model.Process) string {
	if len(processes) == 0 {
		return ""
	}

	var s strings.Builder
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")).Render("Top Processes") + "\n")

	header := fmt.Sprintf("%-8s %-10s %6s %6s %s", "PID", "USER", "%CPU", "%MEM", "COMMAND")
	s.WriteString(dimStyle.Bold(true).Render(header) + "\n")

	rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4"))
	for _, p := range processes {
		row := fmt.Sprintf("%-8s %-10s %6s %6s %s",
			truncate(p.PID, 8),
			truncate(p.User, 10),
			truncate(p.CPU, 6),
			truncate(p.Memory, 6),
			truncate(p.Command, 40))
		s.WriteString(rowStyle.Render(row) + "\n")
	}

	return s.String()
}

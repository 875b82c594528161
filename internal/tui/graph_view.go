package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rusenback/webtopd/internal/fleet"
	"github.com/rusenback/webtopd/internal/storage"
)

var (
	graphTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B4BEFE"))
	graphAxisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	cpuGraphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA"))
	memGraphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	bothGraphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CBA6F7"))
)

var sparkChars = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// renderSparkline creates a compact sparkline of the last width points
func renderSparkline(data []float64, width int) string {
	if len(data) > width {
		data = data[len(data)-width:]
	}

	var result strings.Builder
	for i := len(data); i < width; i++ {
		result.WriteString(sparkChars[0])
	}
	if len(data) == 0 {
		return result.String()
	}

	min, max := math.MaxFloat64, 0.0
	for _, v := range data {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	// flat series get some headroom instead of a full bar
	if max == min {
		min = math.Max(0, max-10)
		max = max + 10
	}

	for _, v := range data {
		idx := int((v - min) / (max - min) * float64(len(sparkChars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		result.WriteString(sparkChars[idx])
	}

	return result.String()
}

// renderDualGraphWithRange renders CPU and Memory on one graph. Live samples
// arrive once per poll interval; recorded ones cover the selected range.
func renderDualGraphWithRange(cpuData, memData []float64, width, height int, timeRange storage.TimeRange, source string) string {
	var s strings.Builder

	span := timeRange.Duration()
	if source == "live" {
		span = time.Duration(len(cpuData)) * fleet.DefaultInterval
	}

	s.WriteString(graphTitleStyle.Render(fmt.Sprintf("📈 Resource Usage - %s (%s)", timeRange.String(), source)) + "\n")
	s.WriteString(graphAxisStyle.Render("[1]30m [2]1h [3]6h [4]1d [5]1w") + "\n\n")

	if len(cpuData) == 0 || len(memData) == 0 {
		s.WriteString("Waiting for data...\n")
		s.WriteString("Samples appear with the next container update.")
		return s.String()
	}

	s.WriteString("CPU " + cpuGraphStyle.Render(renderSparkline(cpuData, 20)) + "  ")
	s.WriteString("MEM " + memGraphStyle.Render(renderSparkline(memData, 20)) + "\n\n")

	graphHeight := height - 16
	if graphHeight < 5 {
		graphHeight = 5
	}

	s.WriteString(renderCombinedGraph(cpuData, memData, width-8, graphHeight, span))

	return s.String()
}

// renderCombinedGraph draws both series on a fixed 0-100% scale
func renderCombinedGraph(cpuData, memData []float64, width, height int, span time.Duration) string {
	var s strings.Builder

	n := len(cpuData)
	if len(memData) < n {
		n = len(memData)
	}

	cpuCurrent := cpuData[len(cpuData)-1]
	memCurrent := memData[len(memData)-1]

	s.WriteString(cpuGraphStyle.Render("█") + " CPU: " + cpuGraphStyle.Render(fmt.Sprintf("%.1f%%", cpuCurrent)) + "  ")
	s.WriteString(memGraphStyle.Render("█") + " Memory: " + memGraphStyle.Render(fmt.Sprintf("%.1f%%", memCurrent)) + "  ")
	s.WriteString(bothGraphStyle.Render("█") + " Both\n\n")

	maxWidth := width - 10
	if maxWidth < 20 {
		maxWidth = 20
	}
	show := n
	if show > maxWidth {
		show = maxWidth
	}
	displayCPU := cpuData[len(cpuData)-show:]
	displayMem := memData[len(memData)-show:]

	for row := height; row >= 0; row-- {
		var line strings.Builder

		isGridLine := row == height || row == height*3/4 || row == height/2 || row == height/4 || row == 0

		switch row {
		case height:
			line.WriteString(graphAxisStyle.Render("100% "))
		case height * 3 / 4:
			line.WriteString(graphAxisStyle.Render(" 75% "))
		case height / 2:
			line.WriteString(graphAxisStyle.Render(" 50% "))
		case height / 4:
			line.WriteString(graphAxisStyle.Render(" 25% "))
		case 0:
			line.WriteString(graphAxisStyle.Render("  0% "))
		default:
			line.WriteString("     ")
		}
		line.WriteString(graphAxisStyle.Render("│"))

		threshold := float64(row) / float64(height) * 100

		for i := range displayCPU {
			cpuAbove := displayCPU[i] >= threshold
			memAbove := displayMem[i] >= threshold

			switch {
			case cpuAbove && memAbove:
				line.WriteString(bothGraphStyle.Render("█"))
			case cpuAbove:
				line.WriteString(cpuGraphStyle.Render("█"))
			case memAbove:
				line.WriteString(memGraphStyle.Render("█"))
			case isGridLine:
				line.WriteString(graphAxisStyle.Render("·"))
			default:
				line.WriteString(" ")
			}
		}

		s.WriteString(line.String() + "\n")
	}

	axisLength := len(displayCPU)
	if axisLength < 1 {
		axisLength = 1
	}
	s.WriteString("     " + graphAxisStyle.Render("└"+strings.Repeat("─", axisLength)) + "\n")
	s.WriteString(renderTimeLabels(axisLength, span) + "\n")

	return s.String()
}

// formatAgo renders an age the way the axis labels show it
func formatAgo(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "Now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

// renderTimeLabels creates time markers along the X-axis; the leftmost
// column is span ago
func renderTimeLabels(axisLength int, span time.Duration) string {
	if axisLength < 20 {
		return graphAxisStyle.Render(fmt.Sprintf("     %s → Now", formatAgo(span)))
	}

	numMarkers := 5
	if axisLength < 50 {
		numMarkers = 3
	}

	var s strings.Builder
	s.WriteString("     ")

	col := 0
	for i := 0; i < numMarkers; i++ {
		position := i * axisLength / (numMarkers - 1)
		if i == numMarkers-1 {
			position = axisLength - 1
		}

		ago := time.Duration(float64(span) * (1 - float64(position)/float64(axisLength-1)))
		label := formatAgo(ago)

		start := position - len(label)/2
		if start < col {
			start = col
		}
		s.WriteString(strings.Repeat(" ", start-col))
		s.WriteString(label)
		col = start + len(label)
	}

	return graphAxisStyle.Render(s.String())
}

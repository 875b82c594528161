package tui

import "strings"

// truncate shortens a string to a maximum length
func truncate(s string, max int) string {
	if max <= 3 {
		if len(s) > max && max > 0 {
			return s[:max]
		}
		return s
	}
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// calculateVisibleLogLines calculates how many log lines can fit in the panel
func (m Model) calculateVisibleLogLines() int {
	// Must match renderLogPanel: bottom row is 40% of the height
	bottomHeight := m.height - int(float64(m.height)*0.6)
	visibleLines := bottomHeight - 12
	if visibleLines < 3 {
		visibleLines = 3
	}
	return visibleLines
}

// calculateMaxScroll calculates the maximum scroll position
func (m Model) calculateMaxScroll() int {
	maxScroll := len(m.logs) - m.calculateVisibleLogLines()
	if maxScroll < 0 {
		maxScroll = 0
	}
	return maxScroll
}

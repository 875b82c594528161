package tui

import "github.com/charmbracelet/lipgloss"

// View renders the TUI interface
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Connecting..."
	}
	return m.renderFourPanelView()
}

// renderFourPanelView lays out list and stats on top, graph and logs below.
// Columns split 60/40, rows 60/40.
func (m Model) renderFourPanelView() string {
	leftWidth := int(float64(m.width) * 0.6)
	rightWidth := m.width - leftWidth

	topHeight := int(float64(m.height) * 0.6)
	bottomHeight := m.height - topHeight

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderContainerListPanel(leftWidth, topHeight),
		m.renderStatsPanel(rightWidth, topHeight),
	)

	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderGraphPanel(leftWidth, bottomHeight),
		m.renderLogPanel(rightWidth, bottomHeight),
	)

	return lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow)
}

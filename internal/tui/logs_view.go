package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorPattern   = regexp.MustCompile(`(?i)\b(error|err|fatal|fail|failed|exception|panic)\b`)
	warningPattern = regexp.MustCompile(`(?i)\b(warn|warning|caution)\b`)
	infoPattern    = regexp.MustCompile(`(?i)\b(info|information)\b`)
	debugPattern   = regexp.MustCompile(`(?i)\b(debug|trace)\b`)

	// s6 and supervisord prefixes seen in desktop images
	servicePattern = regexp.MustCompile(`^\[[\w\-. :]+\]`)
	urlPattern     = regexp.MustCompile(`https?://[^\s]+`)

	errorLogStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	warningLogStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387"))
	infoLogStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA"))
	debugLogStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	defaultLogStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4"))

	serviceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CBA6F7"))
	urlStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#89DCEB"))
)

// logLevelStyle picks a style from the words in the line
func logLevelStyle(line string) lipgloss.Style {
	switch {
	case errorPattern.MatchString(line):
		return errorLogStyle
	case warningPattern.MatchString(line):
		return warningLogStyle
	case infoPattern.MatchString(line):
		return infoLogStyle
	case debugPattern.MatchString(line):
		return debugLogStyle
	}
	return defaultLogStyle
}

// styleLogLine truncates to maxWidth runes first, then colours the line
func styleLogLine(line string, maxWidth int) string {
	line = strings.TrimRight(line, "\r")

	if maxWidth > 3 {
		if runes := []rune(line); len(runes) > maxWidth {
			line = string(runes[:maxWidth-3]) + "..."
		}
	}

	base := logLevelStyle(line)

	prefix := servicePattern.FindString(line)
	rest := line[len(prefix):]

	var out strings.Builder
	if prefix != "" {
		out.WriteString(serviceStyle.Render(prefix))
	}

	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(rest, -1) {
		out.WriteString(base.Render(rest[last:loc[0]]))
		out.WriteString(urlStyle.Render(rest[loc[0]:loc[1]]))
		last = loc[1]
	}
	out.WriteString(base.Render(rest[last:]))

	return out.String()
}

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/five82/visionmon/internal/logtail"
)

// readLogsCmd reads the tail of the client log file.
func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

// handleLogsKey processes keyboard input for the logs view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ToggleFollow) {
		m.logFollow = !m.logFollow
		if m.logFollow {
			m.logViewport.GotoBottom()
			if m.logPath != "" {
				return m, readLogsCmd(m.logPath)
			}
		}
		return m, nil
	}
	if !scrollViewport(&m.logViewport, msg, m.keys) {
		return m, nil
	}
	// Scrolling away from the end pauses follow; jumping to the end resumes it.
	switch {
	case key.Matches(msg, m.keys.Bottom):
		m.logFollow = true
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.Top):
		m.logFollow = false
	}
	return m, nil
}

// updateLogViewport re-renders the log lines.
func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	if len(m.logLines) == 0 {
		msg := "No log entries"
		if m.logPath == "" {
			msg = "Logging to a file is disabled"
		}
		m.logViewport.SetContent(m.theme.Styles().FaintText.Render(msg))
		return
	}
	width := m.logViewport.Width
	rendered := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		rendered = append(rendered, m.renderLogLine(line, width))
	}
	m.logViewport.SetContent(strings.Join(rendered, "\n"))
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

// renderLogLine formats one zerolog JSON line colored by level.
func (m Model) renderLogLine(line string, width int) string {
	styles := m.theme.Styles()
	entry := logtail.Parse(line)
	text := truncate(logtail.Format(entry), width)

	var style lipgloss.Style
	switch entry.Level {
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		style = styles.DangerText
	case zerolog.WarnLevel:
		style = styles.WarningText
	case zerolog.DebugLevel, zerolog.TraceLevel:
		style = styles.FaintText
	default:
		style = styles.Text
	}
	return style.Render(text)
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Client log")
	if m.logPath != "" {
		title += styles.FaintText.Render("  " + truncateMiddle(m.logPath, max(m.width/2, 20)))
	}
	if m.logFollow {
		title += styles.SuccessText.Render("  following")
	} else {
		title += styles.WarningText.Render("  paused")
	}
	box := styles.FocusedPane.Width(max(m.width-2, 10)).Height(max(m.contentHeight()-3, 3))
	return title + "\n" + box.Render(m.logViewport.View())
}

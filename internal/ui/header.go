package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/visionmon/internal/state"
)

const appName = "visionmon"

// renderHeader renders the status bar: facility label, stream connection,
// camera and message counts, and the time of the last update.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render(appName, styles.Logo)}
	parts = append(parts, m.connectionIndicator(styles, bg))

	facility := m.snapshot.Facility.Label
	if facility == "" {
		parts = append(parts, bg.Render("Facility:", styles.MutedText)+bg.Spaces(1)+bg.Render("unknown", styles.FaintText))
	} else {
		parts = append(parts, bg.Render("Facility:", styles.MutedText)+bg.Spaces(1)+
			bg.Render(truncate(facility, 40), styles.StateLabelStyle(facility).Background(lipgloss.Color(m.theme.Surface))))
	}

	parts = append(parts,
		bg.Render("Cameras:", styles.MutedText)+bg.Spaces(1)+
			bg.Render(fmt.Sprintf("%d", len(m.snapshot.Cameras)), styles.Text),
	)

	if alerts := m.activeAlertCount(); alerts > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d alerting", alerts), styles.DangerText))
	}

	if m.width >= LayoutCompactWidth {
		parts = append(parts,
			bg.Render("Updated", styles.FaintText)+bg.Spaces(1)+
				bg.Render(relativeTime(m.snapshot.LastUpdated, m.now), styles.MutedText),
		)
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// connectionIndicator renders the stream connection state.
func (m Model) connectionIndicator(styles Styles, bg BgStyle) string {
	st := m.streamStatus
	switch {
	case st.Connected:
		return bg.Render("● LIVE", styles.SuccessText)
	case st.Failures > 0:
		label := fmt.Sprintf("● RETRY %d", st.Failures)
		if m.width >= LayoutWideWidth && st.LastError != "" {
			label += " " + truncate(st.LastError, 48)
		}
		return bg.Render(label, styles.DangerText)
	default:
		return bg.Render("● CONNECTING", styles.WarningText)
	}
}

func (m Model) activeAlertCount() int {
	n := 0
	for _, status := range m.snapshot.Alerts {
		if status == state.AlertTriggered || status == state.AlertFlapping {
			n++
		}
	}
	return n
}

// renderCommandBar renders the view tabs and any flash message.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	tabs := make([]string, 0, len(viewOrder))
	for i, v := range viewOrder {
		label := fmt.Sprintf("%d %s", i+1, v)
		if v == m.currentView {
			tabs = append(tabs, styles.Selected.Padding(0, 1).Render(label))
			continue
		}
		tabs = append(tabs, bg.Spaces(1)+bg.Render(label, styles.MutedText)+bg.Spaces(1))
	}
	line := bg.Join(tabs, " ")

	if m.flash != "" {
		style := styles.InfoText
		if m.flashIsError {
			style = styles.DangerText
		}
		avail := m.width - lipgloss.Width(line) - 4
		if avail > 10 {
			line += bg.Spaces(2) + bg.Render(truncate(m.flash, avail), style)
		}
	}
	return bg.FillLine(line, m.width)
}

// renderFooter renders the short key help for the active view.
func (m Model) renderFooter() string {
	bindings := m.keys.ShortHelp()
	switch {
	case m.editingDate:
		bindings = m.keys.dateInputHelp()
	case m.currentView == ViewTimeline:
		bindings = m.keys.timelineHelp()
	}
	view := m.help.ShortHelpView(bindings)
	return strings.TrimRight(view, " ")
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/visionmon/internal/monitor"
	"github.com/five82/visionmon/internal/state"
)

// cardHeight is the rendered height of one camera card, borders included.
const cardHeight = 6

// cardColumns returns how many camera cards fit side by side.
func (m Model) cardColumns() int {
	switch {
	case m.width >= LayoutWideWidth:
		return 3
	case m.width >= LayoutCompactWidth:
		return 2
	default:
		return 1
	}
}

// cardRows returns the number of card rows shown, capped so the message
// log keeps at least a few lines.
func (m Model) cardRows() int {
	n := len(m.snapshot.Cameras)
	if n == 0 {
		return 0
	}
	cols := m.cardColumns()
	rows := (n + cols - 1) / cols
	maxRows := max((m.contentHeight()-6)/cardHeight, 1)
	return min(rows, maxRows)
}

func (m Model) cameraGridHeight() int {
	rows := m.cardRows()
	if rows == 0 {
		return 1
	}
	return rows * cardHeight
}

// renderLive renders the camera grid above the message log.
func (m Model) renderLive() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(m.renderCameraGrid())
	b.WriteString("\n")

	title := styles.AccentText.Bold(true).Render("Messages") +
		styles.FaintText.Render(fmt.Sprintf("  %d newest first", len(m.snapshot.Messages)))
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(m.liveViewport.View())
	return b.String()
}

// renderCameraGrid lays out one card per camera in insertion order.
func (m Model) renderCameraGrid() string {
	styles := m.theme.Styles()
	cams := m.snapshot.Cameras
	if len(cams) == 0 {
		return styles.FaintText.Render("No cameras reported yet")
	}

	cols := m.cardColumns()
	rows := m.cardRows()
	width := max(m.width-2, 20)
	if cols > 1 {
		width = max(min(m.width/cols-1, CameraCardWidth+24), CameraCardWidth/2)
	}

	var lines []string
	for r := 0; r < rows; r++ {
		var row []string
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if i >= len(cams) {
				break
			}
			row = append(row, m.renderCameraCard(cams[i], width))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	grid := lipgloss.JoinVertical(lipgloss.Left, lines...)

	if hidden := len(cams) - rows*cols; hidden > 0 {
		grid += "\n" + styles.FaintText.Render(fmt.Sprintf("+%d more cameras", hidden))
	}
	return grid
}

func (m Model) renderCameraCard(cam monitor.CameraSnapshot, width int) string {
	styles := m.theme.Styles()
	inner := max(width-4, 10)

	name := styles.AccentText.Bold(true).Render(truncate(cam.CameraName, inner-6)) +
		styles.FaintText.Render(" #"+cam.CameraIndex)

	label := cameraStateLabel(m.snapshot.CameraStates, cam.CameraIndex)
	stateLine := styles.StateLabelStyle(label).Render(truncate(orDash(label), inner/2))
	alert := cameraAlert(m.snapshot, cam)
	stateLine += " " + styles.AlertStyle(alert).Render(string(alert))

	ts := styles.MutedText.Render(cam.Timestamp)
	desc := styles.Text.Render(truncate(cam.Description, inner))

	body := strings.Join([]string{name, stateLine, ts, desc}, "\n")
	card := styles.Card.Width(width - 2)
	if alert == state.AlertTriggered {
		card = card.BorderForeground(lipgloss.Color(m.theme.Danger))
	}
	return card.Render(body)
}

// cameraStateLabel returns the camera_states label whose composite id ends
// with cameraIndex.
func cameraStateLabel(labels monitor.StateLabels, cameraIndex string) string {
	for _, l := range labels {
		if l.CameraIndex() == cameraIndex {
			return l.Label
		}
	}
	return ""
}

// cameraAlert resolves the alert status for a camera. Alert events name the
// camera by index, composite id or name depending on the producer.
func cameraAlert(snap state.Snapshot, cam monitor.CameraSnapshot) state.AlertStatus {
	if status, ok := snap.Alerts[cam.CameraIndex]; ok {
		return status
	}
	for _, l := range snap.CameraStates {
		if l.CameraIndex() != cam.CameraIndex {
			continue
		}
		if status, ok := snap.Alerts[l.CompositeID]; ok {
			return status
		}
	}
	return snap.AlertFor(cam.CameraName)
}

// updateLiveViewport re-renders the message log.
func (m *Model) updateLiveViewport() {
	if !m.ready {
		return
	}
	m.liveViewport.Width = max(m.width-4, 10)
	m.liveViewport.Height = max(m.contentHeight()-m.cameraGridHeight()-2, 3)

	styles := m.theme.Styles()
	if len(m.snapshot.Messages) == 0 {
		m.liveViewport.SetContent(styles.FaintText.Render("Waiting for narrative messages..."))
		return
	}
	lines := make([]string, 0, len(m.snapshot.Messages))
	for _, msg := range m.snapshot.Messages {
		head := styles.MutedText.Render(padRight(msg.Timestamp, 20)) + " " +
			styles.AccentText.Render(padRight(msg.CameraName+" #"+msg.CameraIndex, 16)) + " "
		avail := m.liveViewport.Width - lipgloss.Width(head)
		lines = append(lines, head+styles.Text.Render(truncate(msg.Description, max(avail, 10))))
	}
	// Newest first: keep the view at the top so new entries stay visible.
	atTop := m.liveViewport.YOffset == 0
	m.liveViewport.SetContent(strings.Join(lines, "\n"))
	if atTop {
		m.liveViewport.GotoTop()
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

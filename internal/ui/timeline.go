package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/visionmon/internal/monitor"
	"github.com/five82/visionmon/internal/timeline"
)

// clampCameraCursor keeps the highlight inside the camera list, which shows
// "All cameras" at position 0 followed by the cameras from the latest
// analyses.
func (m *Model) clampCameraCursor() {
	m.cameraCursor = max(min(m.cameraCursor, len(m.tl.Cameras)), 0)
}

// handleTimelineKey processes keyboard input for the timeline view.
func (m Model) handleTimelineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PrevCamera):
		if m.cameraCursor > 0 {
			m.cameraCursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.NextCamera):
		if m.cameraCursor < len(m.tl.Cameras) {
			m.cameraCursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.SelectCamera):
		return m.selectHighlighted()
	case key.Matches(msg, m.keys.ClearCamera):
		m.cameraCursor = 0
		return m.selectHighlighted()
	case key.Matches(msg, m.keys.RefreshCameras):
		if m.cursor == nil {
			return m, nil
		}
		return m, loadCamerasCmd(m.ctx, m.cursor)
	case key.Matches(msg, m.keys.DateRange):
		m.editingDate = true
		m.dateInput.SetValue(formatDateRange(m.tl.StartTime, m.tl.EndTime))
		m.dateInput.CursorEnd()
		return m, m.dateInput.Focus()
	}

	if scrollViewport(&m.tlViewport, msg, m.keys) {
		return m, m.maybeLoadMore()
	}
	return m, nil
}

// selectHighlighted applies the highlighted camera list entry.
func (m Model) selectHighlighted() (tea.Model, tea.Cmd) {
	if m.cursor == nil {
		return m, nil
	}
	m.flash = ""
	if m.cameraCursor == 0 {
		m.cursor.ClearCamera()
		m.tl = m.cursor.State()
		m.prefs.CameraIndex, m.prefs.CameraID = "", ""
		m.savePrefs()
		m.updateTimelineViewport(true)
		return m, loadMoreCmd(m.ctx, m.cursor)
	}

	cam := m.tl.Cameras[m.cameraCursor-1]
	m.prefs.CameraIndex, m.prefs.CameraID = cam.Index, cam.ID
	m.savePrefs()
	return m, selectCameraCmd(m.ctx, m.cursor, cam.Index, cam.ID)
}

// handleDateInputKey processes input while the date range field is focused.
func (m Model) handleDateInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.editingDate = false
		m.dateInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		start, end, err := parseDateRange(m.dateInput.Value(), time.Local)
		if err != nil {
			m.flash = err.Error()
			m.flashIsError = true
			return m, nil
		}
		m.editingDate = false
		m.dateInput.Blur()
		m.flash = ""
		if m.cursor == nil {
			return m, nil
		}
		m.cursor.SetDateRange(start, end)
		m.tl = m.cursor.State()
		m.updateTimelineViewport(true)
		return m, loadMoreCmd(m.ctx, m.cursor)
	}

	var cmd tea.Cmd
	m.dateInput, cmd = m.dateInput.Update(msg)
	return m, cmd
}

// maybeLoadMore requests the next page once the events viewport is scrolled
// near its end.
func (m Model) maybeLoadMore() tea.Cmd {
	if m.cursor == nil || m.tl.Loading {
		return nil
	}
	vp := m.tlViewport
	if !timeline.ShouldLoadMore(vp.YOffset, vp.Height, vp.TotalLineCount()) {
		return nil
	}
	return loadMoreCmd(m.ctx, m.cursor)
}

// updateTimelineViewport re-renders the event list when the cursor state
// changed. A new generation scrolls back to the top.
func (m *Model) updateTimelineViewport(force bool) {
	if !m.ready {
		return
	}
	if !force && m.tlRenderedOnce && m.tlRendered == m.tl.Revision {
		return
	}
	newSelection := m.tlGeneration != m.tl.Generation
	m.tlRendered = m.tl.Revision
	m.tlGeneration = m.tl.Generation
	m.tlRenderedOnce = true

	m.tlViewport.SetContent(m.renderEventLines())
	if newSelection {
		m.tlViewport.GotoTop()
	}
}

func (m Model) renderEventLines() string {
	styles := m.theme.Styles()
	if len(m.tl.Events) == 0 {
		if m.tl.Loading {
			return styles.FaintText.Render("Loading events...")
		}
		return styles.FaintText.Render("No events")
	}
	width := m.tlViewport.Width
	lines := make([]string, 0, len(m.tl.Events))
	for _, ev := range m.tl.Events {
		lines = append(lines, m.renderEventLine(ev, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderEventLine(ev monitor.TimelineEvent, width int) string {
	styles := m.theme.Styles()
	ts := ev.Timestamp
	if t := ev.ParsedTime(); !t.IsZero() {
		ts = t.Local().Format("01-02 15:04:05")
	}
	head := styles.MutedText.Render(padRight(truncate(ts, 19), 15)) + " " +
		styles.StateLabelStyle(ev.State).Render(padRight(truncate(orDash(ev.State), 14), 14)) + " "
	avail := max(width-lipgloss.Width(head), 10)
	return head + styles.Text.Render(truncate(ev.Description, avail))
}

// renderTimeline renders the camera list beside the event list.
func (m Model) renderTimeline() string {
	h := m.contentHeight()
	list := m.renderCameraList(h - 2)
	events := m.renderEventsPane()

	left := m.theme.Styles().Pane.Width(CameraListWidth).Height(h - 2).Render(list)
	right := m.theme.Styles().FocusedPane.Width(max(m.width-CameraListWidth-4, 10)).Height(h - 2).Render(events)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderCameraList(height int) string {
	styles := m.theme.Styles()
	entries := make([]string, 0, len(m.tl.Cameras)+1)
	entries = append(entries, "All cameras")
	for _, cam := range m.tl.Cameras {
		entries = append(entries, cameraLabel(cam))
	}

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Cameras"))
	b.WriteString("\n")
	for i, label := range entries {
		if i+1 >= height {
			b.WriteString(styles.FaintText.Render(fmt.Sprintf("+%d more", len(entries)-i)))
			break
		}
		active := (i == 0 && !m.tl.HasCamera()) ||
			(i > 0 && m.tl.Cameras[i-1].ID == m.tl.CameraID && m.tl.HasCamera())
		marker := "  "
		if active {
			marker = "● "
		}
		line := padRight(truncate(marker+label, CameraListWidth-1), CameraListWidth-1)
		if i == m.cameraCursor {
			b.WriteString(styles.Selected.Render(line))
		} else if active {
			b.WriteString(styles.AccentText.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderEventsPane() string {
	styles := m.theme.Styles()
	var b strings.Builder

	filter := "All cameras"
	selected, hasSelected := m.selectedCamera()
	switch {
	case hasSelected:
		filter = cameraLabel(selected)
	case m.tl.HasCamera():
		filter = "Camera " + m.tl.CameraID
	}
	title := styles.AccentText.Bold(true).Render(filter)
	if m.tl.HasDateRange() {
		title += styles.MutedText.Render("  " + formatDateRange(m.tl.StartTime, m.tl.EndTime))
	}
	status := fmt.Sprintf("  %d events", len(m.tl.Events))
	if m.tl.Loading {
		status += "  loading..."
	}
	b.WriteString(title + styles.FaintText.Render(status))
	b.WriteString("\n")

	if m.editingDate {
		b.WriteString(m.dateInput.View())
	} else {
		info := m.tl.Query().Endpoint()
		if hasSelected && m.links != nil && selected.ImagePath != "" {
			info += "  latest image " + m.links.ResolveURL(selected.ImagePath)
		}
		b.WriteString(styles.FaintText.Render(truncate(info, m.tlViewport.Width)))
	}
	b.WriteString("\n")
	b.WriteString(m.tlViewport.View())
	return b.String()
}

// selectedCamera returns the summary of the camera the cursor is filtered to.
func (m Model) selectedCamera() (monitor.CameraSummary, bool) {
	if !m.tl.HasCamera() {
		return monitor.CameraSummary{}, false
	}
	for _, cam := range m.tl.Cameras {
		if cam.ID == m.tl.CameraID {
			return cam, true
		}
	}
	return monitor.CameraSummary{}, false
}

func cameraLabel(cam monitor.CameraSummary) string {
	if cam.Name == "" {
		return "#" + cam.Index
	}
	return cam.Name + " #" + cam.Index
}

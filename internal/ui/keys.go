package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding

	// View switching
	ViewLive     key.Binding
	ViewTimeline key.Binding
	ViewLogs     key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Timeline actions
	PrevCamera     key.Binding
	NextCamera     key.Binding
	SelectCamera   key.Binding
	ClearCamera    key.Binding
	DateRange      key.Binding
	RefreshCameras key.Binding

	// Logs actions
	ToggleFollow key.Binding

	// Input
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous view"),
		),

		ViewLive: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "live"),
		),
		ViewTimeline: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "timeline"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "logs"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdown", "page down"),
		),

		PrevCamera: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "previous camera"),
		),
		NextCamera: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "next camera"),
		),
		SelectCamera: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select camera"),
		),
		ClearCamera: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "all cameras"),
		),
		DateRange: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "date range"),
		),
		RefreshCameras: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh cameras"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys("f", " "),
			key.WithHelp("f", "follow"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ViewLive, k.ViewTimeline, k.ViewLogs, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewLive, k.ViewTimeline, k.ViewLogs},
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown},
		{k.PrevCamera, k.NextCamera, k.SelectCamera, k.ClearCamera, k.DateRange, k.RefreshCameras},
		{k.ToggleFollow, k.CycleTheme, k.Help, k.Quit},
	}
}

// timelineHelp returns the footer bindings for the timeline view.
func (k keyMap) timelineHelp() []key.Binding {
	return []key.Binding{k.PrevCamera, k.NextCamera, k.SelectCamera, k.ClearCamera, k.DateRange, k.Help}
}

// dateInputHelp returns the footer bindings while editing the date range.
func (k keyMap) dateInputHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

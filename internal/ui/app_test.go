package ui

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/visionmon/internal/hub"
	"github.com/five82/visionmon/internal/monitor"
	"github.com/five82/visionmon/internal/prefs"
	"github.com/five82/visionmon/internal/state"
	"github.com/five82/visionmon/internal/timeline"
)

type stubFetcher struct {
	mu        sync.Mutex
	queries   []monitor.TimelineQuery
	cameraIDs []string
	page      []monitor.TimelineEvent
	events    []monitor.TimelineEvent
	cameras   []monitor.CameraSummary
}

func (f *stubFetcher) FetchTimeline(_ context.Context, q monitor.TimelineQuery) ([]monitor.TimelineEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.page, nil
}

func (f *stubFetcher) FetchCameraTimeline(_ context.Context, cameraID string) ([]monitor.TimelineEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cameraIDs = append(f.cameraIDs, cameraID)
	return f.events, nil
}

func (f *stubFetcher) FetchLatestAnalyses(context.Context) ([]monitor.CameraSummary, error) {
	return f.cameras, nil
}

func (f *stubFetcher) lastQuery(t *testing.T) monitor.TimelineQuery {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		t.Fatal("no timeline query issued")
	}
	return f.queries[len(f.queries)-1]
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.PrefsPath == "" {
		opts.PrefsPath = filepath.Join(t.TempDir(), "prefs.toml")
	}
	opts.Logger = zerolog.Nop()
	m := New(opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

func newCursor(f *stubFetcher) *timeline.Cursor {
	return timeline.NewCursor(f, timeline.Options{Logger: zerolog.Nop()})
}

func TestUpdate_IgnoresOlderSnapshot(t *testing.T) {
	m := newTestModel(t, Options{})

	next, _ := m.Update(updateMsg{Snapshot: state.Snapshot{Version: 5, Facility: state.FacilityState{Label: "Busy"}}})
	m = next.(Model)
	next, _ = m.Update(updateMsg{Snapshot: state.Snapshot{Version: 3, Facility: state.FacilityState{Label: "Quiet"}}})
	m = next.(Model)

	if got := m.snapshot.Facility.Label; got != "Busy" {
		t.Fatalf("facility = %q, want Busy (older snapshot applied)", got)
	}
	if !strings.Contains(m.View(), "Busy") {
		t.Fatalf("header does not show facility:\n%s", m.View())
	}
}

func TestUpdate_IgnoresOlderCursorState(t *testing.T) {
	m := newTestModel(t, Options{})

	next, _ := m.Update(cursorMsg{Revision: 4, Offset: 20})
	m = next.(Model)
	next, _ = m.Update(cursorMsg{Revision: 2, Offset: 0})
	m = next.(Model)

	if m.tl.Offset != 20 {
		t.Fatalf("offset = %d, want 20", m.tl.Offset)
	}
}

func TestView_RendersLiveCamera(t *testing.T) {
	h := hub.New(state.NewStore(state.Options{}), hub.Options{Logger: zerolog.Nop()})
	if err := h.HandleMessage("Lobby 1 2024-01-01 12:00:00 Person detected"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if err := h.HandleMessage(`{"message":"{\"type\":\"alert\",\"camera_id\":\"1\",\"alert_type\":\"ALERT\"}"}`); err != nil {
		t.Fatalf("HandleMessage alert: %v", err)
	}

	m := newTestModel(t, Options{Hub: h})
	view := m.View()
	for _, want := range []string{"Lobby", "Person detected", string(state.AlertTriggered), "1 alerting"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTimeline_SelectCameraPersistsPreference(t *testing.T) {
	f := &stubFetcher{
		cameras: []monitor.CameraSummary{{ID: "Lobby 1", Index: "1", Name: "Lobby"}},
		events:  []monitor.TimelineEvent{{DataID: "9", State: "Busy", Description: "Person detected"}},
	}
	cursor := newCursor(f)
	if err := cursor.LoadCameras(context.Background()); err != nil {
		t.Fatalf("LoadCameras: %v", err)
	}
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	m := newTestModel(t, Options{Cursor: cursor, PrefsPath: prefsPath})

	m, cmd := press(m, "2", "l", "enter")
	if cmd == nil {
		t.Fatal("expected a select command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("select returned %v", msg)
	}

	if got := cursor.State().CameraID; got != "Lobby 1" {
		t.Fatalf("cursor camera = %q, want Lobby 1", got)
	}
	if len(f.cameraIDs) != 1 || f.cameraIDs[0] != "Lobby 1" {
		t.Fatalf("camera fetches = %v", f.cameraIDs)
	}
	p, _ := prefs.Load(prefsPath)
	if p.CameraID != "Lobby 1" || p.CameraIndex != "1" {
		t.Fatalf("prefs = %+v", p)
	}

	next, _ := m.Update(cursorMsg(cursor.State()))
	m = next.(Model)
	if !strings.Contains(m.View(), "Person detected") {
		t.Fatalf("timeline view missing event:\n%s", m.View())
	}
}

func TestTimeline_DateRangeInput(t *testing.T) {
	f := &stubFetcher{}
	cursor := newCursor(f)
	m := newTestModel(t, Options{Cursor: cursor})

	m, _ = press(m, "2", "d")
	if !m.editingDate {
		t.Fatal("date input not opened")
	}
	m, cmd := press(m, "2024-01-01 .. 2024-01-02", "enter")
	if m.editingDate {
		t.Fatalf("date input still open, flash = %q", m.flash)
	}
	if !cursor.State().HasDateRange() {
		t.Fatal("cursor has no date range")
	}
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	cmd()
	q := f.lastQuery(t)
	if q.Endpoint() != monitor.EndpointTimelineByDate || q.Offset != 0 {
		t.Fatalf("query = %+v (endpoint %s)", q, q.Endpoint())
	}
}

func TestTimeline_InvalidDateRangeKeepsInputOpen(t *testing.T) {
	f := &stubFetcher{}
	m := newTestModel(t, Options{Cursor: newCursor(f)})

	m, cmd := press(m, "2", "d", "nope", "enter")
	if !m.editingDate || !m.flashIsError {
		t.Fatalf("editing = %v flashIsError = %v", m.editingDate, m.flashIsError)
	}
	if cmd != nil {
		t.Fatal("invalid range should not issue a command")
	}
	if len(f.queries) != 0 {
		t.Fatalf("queries = %v", f.queries)
	}

	m, _ = press(m, "esc")
	if m.editingDate {
		t.Fatal("esc did not close the date input")
	}
}

func TestTimeline_ScrollNearEndLoadsNextPage(t *testing.T) {
	f := &stubFetcher{page: []monitor.TimelineEvent{{DataID: "1"}, {DataID: "2"}, {DataID: "3"}}}
	cursor := newCursor(f)
	if _, err := cursor.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	m := newTestModel(t, Options{Cursor: cursor})

	_, cmd := press(m, "2", "j")
	if cmd == nil {
		t.Fatal("expected load-more command")
	}
	cmd()
	if got := f.lastQuery(t).Offset; got != 3 {
		t.Fatalf("next page offset = %d, want 3", got)
	}
}

func TestCycleTheme_SavesPreference(t *testing.T) {
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	m := newTestModel(t, Options{PrefsPath: prefsPath, Prefs: prefs.Prefs{Theme: "Nightfox"}})

	m, _ = press(m, "T")
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	p, _ := prefs.Load(prefsPath)
	if p.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q", p.Theme)
	}
}

func TestLogsView_FormatsEntries(t *testing.T) {
	m := newTestModel(t, Options{LogPath: filepath.Join(t.TempDir(), "visionmon.log")})
	next, _ := m.Update(logLinesMsg{lines: []string{
		`{"level":"warn","component":"hub","message":"ignoring unknown alert type"}`,
	}})
	m = next.(Model)

	m, cmd := press(m, "3")
	if cmd == nil {
		t.Fatal("switching to logs should refresh them")
	}
	if view := m.View(); !strings.Contains(view, "WRN [hub] ignoring unknown alert type") {
		t.Fatalf("logs view:\n%s", view)
	}
}

func TestHelpAndQuit(t *testing.T) {
	m := newTestModel(t, Options{})

	m, _ = press(m, "?")
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not shown")
	}
	m, _ = press(m, "x")
	if m.showHelp {
		t.Fatal("any key should close help")
	}

	_, cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("quit command did not return tea.QuitMsg")
	}
}

type prefixResolver string

func (p prefixResolver) ResolveURL(path string) string { return string(p) + path }

func TestTimeline_ShowsLatestImageForSelectedCamera(t *testing.T) {
	f := &stubFetcher{cameras: []monitor.CameraSummary{{ID: "Dock 4", Index: "4", Name: "Dock", ImagePath: monitor.LatestImagePath("4")}}}
	cursor := newCursor(f)
	if err := cursor.LoadCameras(context.Background()); err != nil {
		t.Fatalf("LoadCameras: %v", err)
	}
	if err := cursor.SelectCamera(context.Background(), "4", "Dock 4"); err != nil {
		t.Fatalf("SelectCamera: %v", err)
	}
	m := newTestModel(t, Options{Cursor: cursor, Links: prefixResolver("http://backend")})

	m, _ = press(m, "2")
	view := m.View()
	if !strings.Contains(view, "http://backend"+monitor.LatestImagePath("4")) {
		t.Fatalf("timeline view missing image link:\n%s", view)
	}
	if !strings.Contains(view, "Dock #4") {
		t.Fatalf("timeline view missing camera label:\n%s", view)
	}
}

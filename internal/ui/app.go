package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/visionmon/internal/hub"
	"github.com/five82/visionmon/internal/prefs"
	"github.com/five82/visionmon/internal/state"
	"github.com/five82/visionmon/internal/stream"
	"github.com/five82/visionmon/internal/timeline"
)

// View represents the current active view.
type View int

const (
	ViewLive View = iota
	ViewTimeline
	ViewLogs
)

var viewOrder = []View{ViewLive, ViewTimeline, ViewLogs}

func (v View) String() string {
	switch v {
	case ViewTimeline:
		return "Timeline"
	case ViewLogs:
		return "Logs"
	default:
		return "Live"
	}
}

// StatusSource reports the stream connection state.
type StatusSource interface {
	Status() stream.Status
}

// URLResolver turns backend-relative image paths into absolute URLs.
type URLResolver interface {
	ResolveURL(path string) string
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Hub       *hub.Hub
	Cursor    *timeline.Cursor
	Stream    StatusSource
	Links     URLResolver
	LogPath   string
	ThemeName string
	PrefsPath string
	Prefs     prefs.Prefs
	Logger    zerolog.Logger
	Tick      time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	hub       *hub.Hub
	cursor    *timeline.Cursor
	stream    StatusSource
	links     URLResolver
	logPath   string
	prefsPath string
	prefs     prefs.Prefs
	log       zerolog.Logger
	tick      time.Duration
	keys      keyMap
	help      help.Model

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	now         time.Time

	// Data state
	snapshot     state.Snapshot
	streamStatus stream.Status
	flash        string
	flashIsError bool

	// Live view
	liveViewport viewport.Model

	// Timeline view
	tl             timeline.State
	tlViewport     viewport.Model
	cameraCursor   int
	dateInput      textinput.Model
	editingDate    bool
	tlRendered     uint64
	tlGeneration   uint64
	tlRenderedOnce bool

	// Logs view
	logViewport viewport.Model
	logLines    []string
	logFollow   bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Placeholder = "2024-01-01 .. 2024-01-02"
	input.CharLimit = 64
	input.Prompt = "range: "

	m := Model{
		ctx:         ctx,
		hub:         opts.Hub,
		cursor:      opts.Cursor,
		stream:      opts.Stream,
		links:       opts.Links,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		prefs:       opts.Prefs,
		log:         opts.Logger.With().Str("component", "ui").Logger(),
		tick:        tick,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       GetTheme(themeName),
		currentView: ViewLive,
		now:         time.Now(),
		dateInput:   input,
		logFollow:   true,
	}
	if m.hub != nil {
		m.snapshot = m.hub.Snapshot()
	}
	if m.cursor != nil {
		m.tl = m.cursor.State()
	}
	if m.stream != nil {
		m.streamStatus = m.stream.Status()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.cursor != nil {
		cmds = append(cmds, loadCamerasCmd(m.ctx, m.cursor))
		if m.prefs.HasCamera() {
			cmds = append(cmds, selectCameraCmd(m.ctx, m.cursor, m.prefs.CameraIndex, m.prefs.CameraID))
		} else {
			cmds = append(cmds, loadMoreCmd(m.ctx, m.cursor))
		}
	}
	if m.logPath != "" {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.resizeViewports()
		m.updateLiveViewport()
		m.updateTimelineViewport(true)
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case updateMsg:
		// Updates are sent from their own goroutines and may arrive out of
		// order; only the newest snapshot is kept.
		if msg.Snapshot.Version < m.snapshot.Version {
			return m, nil
		}
		m.snapshot = msg.Snapshot
		m.updateLiveViewport()
		return m, nil

	case cursorMsg:
		if msg.Revision < m.tl.Revision {
			return m, nil
		}
		m.tl = timeline.State(msg)
		m.clampCameraCursor()
		m.updateTimelineViewport(false)
		return m, nil

	case cursorErrMsg:
		m.flash = msg.op + " failed: " + msg.err.Error()
		m.flashIsError = true
		return m, nil

	case logLinesMsg:
		if msg.err != nil {
			m.log.Debug().Err(msg.err).Msg("log refresh failed")
			return m, nil
		}
		m.logLines = msg.lines
		m.updateLogViewport()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Connecting..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewTimeline:
		return m.renderTimeline()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderLive()
	}
}

// contentHeight is the height left for the active view below the header,
// command bar and footer.
func (m Model) contentHeight() int {
	return max(m.height-3, 1)
}

func (m *Model) resizeViewports() {
	h := m.contentHeight()
	liveH := max(h-m.cameraGridHeight()-2, 3)
	if m.liveViewport.Width == 0 {
		m.liveViewport = viewport.New(m.width-4, liveH)
	}
	m.liveViewport.Width = max(m.width-4, 10)
	m.liveViewport.Height = liveH

	tlWidth := max(m.width-CameraListWidth-6, 10)
	tlHeight := max(h-4, 3)
	if m.tlViewport.Width == 0 {
		m.tlViewport = viewport.New(tlWidth, tlHeight)
	}
	m.tlViewport.Width = tlWidth
	m.tlViewport.Height = tlHeight

	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(m.width-4, h-2)
	}
	m.logViewport.Width = max(m.width-4, 10)
	m.logViewport.Height = max(h-2, 3)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.editingDate {
		return m.handleDateInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.updateLiveViewport()
		m.updateTimelineViewport(true)
		m.updateLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.stepView(1))
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.stepView(-1))
	case key.Matches(msg, m.keys.ViewLive):
		return m.switchView(ViewLive)
	case key.Matches(msg, m.keys.ViewTimeline):
		return m.switchView(ViewTimeline)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)
	}

	switch m.currentView {
	case ViewTimeline:
		return m.handleTimelineKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		scrollViewport(&m.liveViewport, msg, m.keys)
		return m, nil
	}
}

func (m Model) stepView(delta int) View {
	for i, v := range viewOrder {
		if v == m.currentView {
			return viewOrder[(i+delta+len(viewOrder))%len(viewOrder)]
		}
	}
	return ViewLive
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	if v == ViewLogs && m.logPath != "" {
		return m, readLogsCmd(m.logPath)
	}
	return m, nil
}

// scrollViewport applies the shared navigation bindings to vp and reports
// whether the key was consumed.
func scrollViewport(vp *viewport.Model, msg tea.KeyMsg, keys keyMap) bool {
	switch {
	case key.Matches(msg, keys.Up):
		vp.SetYOffset(vp.YOffset - 1)
	case key.Matches(msg, keys.Down):
		vp.SetYOffset(vp.YOffset + 1)
	case key.Matches(msg, keys.PageUp):
		vp.SetYOffset(vp.YOffset - vp.Height)
	case key.Matches(msg, keys.PageDown):
		vp.SetYOffset(vp.YOffset + vp.Height)
	case key.Matches(msg, keys.Top):
		vp.GotoTop()
	case key.Matches(msg, keys.Bottom):
		vp.GotoBottom()
	default:
		return false
	}
	return true
}

// handleTick refreshes the connection status and the followed log.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.now = now
	if m.stream != nil {
		m.streamStatus = m.stream.Status()
	}
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.currentView == ViewLogs && m.logFollow && m.logPath != "" {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.log.Warn().Err(err).Str("path", m.prefsPath).Msg("save preferences failed")
	}
}

// Messages

type tickMsg time.Time

// updateMsg carries a hub update.
type updateMsg hub.Update

// cursorMsg carries a timeline cursor state.
type cursorMsg timeline.State

type cursorErrMsg struct {
	op  string
	err error
}

type logLinesMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// cursorFailure turns a cursor error into a message, dropping the errors
// that only mean the request was superseded.
func cursorFailure(op string, err error) tea.Msg {
	if err == nil || errors.Is(err, timeline.ErrBusy) || errors.Is(err, timeline.ErrStale) || errors.Is(err, context.Canceled) {
		return nil
	}
	return cursorErrMsg{op: op, err: err}
}

func loadMoreCmd(ctx context.Context, c *timeline.Cursor) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		_, err := c.LoadMore(ctx)
		return cursorFailure("load more", err)
	}
}

func selectCameraCmd(ctx context.Context, c *timeline.Cursor, index, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		return cursorFailure("select camera", c.SelectCamera(ctx, index, id))
	}
}

func loadCamerasCmd(ctx context.Context, c *timeline.Cursor) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		return cursorFailure("load cameras", c.LoadCameras(ctx))
	}
}

// Run starts the Bubble Tea program and blocks until it exits or the
// context is cancelled.
func Run(opts Options) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context))

	// Listeners run on the publishing goroutine; Send blocks until the
	// program reads the message, so it must not run inline.
	if opts.Hub != nil {
		cancel := opts.Hub.Subscribe(func(u hub.Update) {
			go p.Send(updateMsg(u))
		})
		defer cancel()
	}
	if opts.Cursor != nil {
		cancel := opts.Cursor.Subscribe(func(s timeline.State) {
			go p.Send(cursorMsg(s))
		})
		defer cancel()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context.Err() != nil {
		return nil
	}
	return err
}

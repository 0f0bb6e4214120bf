package timeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/visionmon/internal/monitor"
)

const (
	// PageSize is the fixed page limit for paginated requests.
	PageSize = 20
	// ScrollThreshold is the remaining unscrolled distance at which the next
	// page is requested.
	ScrollThreshold = 5
)

var (
	// ErrBusy is returned by LoadMore while a page request is in flight.
	ErrBusy = errors.New("timeline load already in flight")
	// ErrStale is returned when a response arrives after the selection it was
	// requested for has been replaced.
	ErrStale = errors.New("timeline response superseded")
)

// Recorder receives fetch failures for metrics.
type Recorder interface {
	RecordFetchError(op string)
}

// Listener is called with the cursor state after every change.
type Listener func(State)

// Options configure a Cursor.
type Options struct {
	Logger  zerolog.Logger
	Metrics Recorder
	Limit   int
}

// State is a copy of the cursor handed to renderers.
type State struct {
	Offset      int
	Limit       int
	Loading     bool
	CameraIndex string
	CameraID    string
	StartTime   time.Time
	EndTime     time.Time
	Events      []monitor.TimelineEvent
	Cameras     []monitor.CameraSummary
	// Generation changes whenever the camera or date range changes.
	Generation uint64
	// Revision changes on every mutation.
	Revision uint64
}

// HasCamera reports whether a camera is selected.
func (s State) HasCamera() bool {
	return s.CameraID != ""
}

// HasDateRange reports whether a date range is set.
func (s State) HasDateRange() bool {
	return !s.StartTime.IsZero() && !s.EndTime.IsZero()
}

// Query builds the next page request.
func (s State) Query() monitor.TimelineQuery {
	q := monitor.TimelineQuery{
		Offset:   s.Offset,
		Limit:    s.Limit,
		CameraID: s.CameraID,
	}
	if s.HasDateRange() {
		q.StartTime = s.StartTime
		q.EndTime = s.EndTime
	}
	return q
}

// Cursor holds pagination and filter state for the historical timeline.
// Methods are safe for concurrent use; fetches run without the lock held so
// readers stay responsive while a page is loading.
type Cursor struct {
	fetcher monitor.Fetcher
	log     zerolog.Logger
	metrics Recorder

	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// NewCursor returns a cursor at offset 0 with no camera or date range.
func NewCursor(fetcher monitor.Fetcher, opts Options) *Cursor {
	limit := opts.Limit
	if limit <= 0 {
		limit = PageSize
	}
	return &Cursor{
		fetcher:   fetcher,
		log:       opts.Logger.With().Str("component", "timeline").Logger(),
		metrics:   opts.Metrics,
		state:     State{Limit: limit},
		listeners: make(map[int]Listener),
	}
}

// State returns a copy of the current cursor.
func (c *Cursor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for state changes and returns a cancel func.
func (c *Cursor) Subscribe(fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// SelectCamera makes cameraID the active camera, resets the page offset and
// fetches the camera's events together with the latest per-camera analyses.
// Both results are applied together or not at all.
func (c *Cursor) SelectCamera(ctx context.Context, cameraIndex, cameraID string) error {
	c.mu.Lock()
	c.state.CameraIndex = cameraIndex
	c.state.CameraID = cameraID
	gen := c.resetLocked()
	c.mu.Unlock()
	c.notify()

	log := c.log.With().
		Str("camera_id", cameraID).
		Str("camera_index", cameraIndex).
		Uint64("generation", gen).
		Logger()

	var (
		events  []monitor.TimelineEvent
		cameras []monitor.CameraSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = c.fetcher.FetchCameraTimeline(gctx, cameraID)
		return err
	})
	g.Go(func() error {
		var err error
		cameras, err = c.fetcher.FetchLatestAnalyses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.recordFetchError(err, "select_camera")
		log.Error().Err(err).Msg("select camera fetch failed")
		return fmt.Errorf("select camera %s: %w", cameraID, err)
	}

	c.mu.Lock()
	if c.state.Generation != gen {
		c.mu.Unlock()
		log.Debug().Msg("discarding stale camera selection")
		return ErrStale
	}
	c.state.Events = events
	c.state.Cameras = cameras
	c.state.Offset = len(events)
	c.state.Revision++
	c.mu.Unlock()
	c.notify()

	log.Debug().Int("events", len(events)).Int("cameras", len(cameras)).Msg("camera selected")
	return nil
}

// ClearCamera drops the camera filter and resets the page offset.
func (c *Cursor) ClearCamera() {
	c.mu.Lock()
	c.state.CameraIndex = ""
	c.state.CameraID = ""
	c.resetLocked()
	c.mu.Unlock()
	c.notify()
}

// SetDateRange replaces the date range and resets the page offset. Zero
// values clear the range.
func (c *Cursor) SetDateRange(start, end time.Time) {
	c.mu.Lock()
	c.state.StartTime = start
	c.state.EndTime = end
	gen := c.resetLocked()
	c.mu.Unlock()
	c.notify()

	c.log.Debug().
		Time("start_time", start).
		Time("end_time", end).
		Uint64("generation", gen).
		Msg("date range set")
}

// LoadMore fetches the next page and appends it. It returns the number of
// events received, ErrBusy when a page is already loading, and ErrStale when
// the selection changed before the page arrived. On failure the offset is
// left unchanged so the same page can be retried.
func (c *Cursor) LoadMore(ctx context.Context) (int, error) {
	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		c.log.Debug().Msg("load suppressed, request in flight")
		return 0, ErrBusy
	}
	c.state.Loading = true
	c.state.Revision++
	query := c.state.Query()
	gen := c.state.Generation
	c.mu.Unlock()
	c.notify()

	log := c.log.With().
		Str("endpoint", query.Endpoint()).
		Int("offset", query.Offset).
		Str("camera_id", query.CameraID).
		Uint64("generation", gen).
		Logger()

	events, err := c.fetcher.FetchTimeline(ctx, query)

	c.mu.Lock()
	if c.state.Generation != gen {
		// The reset that bumped the generation already cleared loading.
		c.mu.Unlock()
		log.Debug().Msg("discarding stale page")
		return 0, ErrStale
	}
	c.state.Loading = false
	c.state.Revision++
	switch {
	case err != nil:
		c.mu.Unlock()
		c.notify()
		c.recordFetchError(err, "load_more")
		log.Error().Err(err).Msg("timeline page fetch failed")
		return 0, err
	case c.state.Offset != query.Offset:
		c.mu.Unlock()
		c.notify()
		log.Debug().Int("current_offset", c.State().Offset).Msg("discarding page for moved offset")
		return 0, ErrStale
	}
	c.state.Events = append(c.state.Events, events...)
	c.state.Offset += len(events)
	c.mu.Unlock()
	c.notify()

	log.Debug().Int("received", len(events)).Msg("timeline page loaded")
	return len(events), nil
}

// LoadCameras refreshes the selectable camera list without touching the
// pagination state.
func (c *Cursor) LoadCameras(ctx context.Context) error {
	cameras, err := c.fetcher.FetchLatestAnalyses(ctx)
	if err != nil {
		c.recordFetchError(err, "latest_analyses")
		c.log.Error().Err(err).Msg("latest analyses fetch failed")
		return err
	}
	c.mu.Lock()
	c.state.Cameras = cameras
	c.state.Revision++
	c.mu.Unlock()
	c.notify()
	return nil
}

// Push inserts live timeline events at the head of the loaded events. The
// offset is not moved because it counts pages fetched from the backend.
// Events are ignored while a date range is set.
func (c *Cursor) Push(events []monitor.TimelineEvent) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	if c.state.HasDateRange() {
		c.mu.Unlock()
		return
	}
	merged := make([]monitor.TimelineEvent, 0, len(events)+len(c.state.Events))
	merged = append(merged, events...)
	merged = append(merged, c.state.Events...)
	c.state.Events = merged
	c.state.Revision++
	c.mu.Unlock()
	c.notify()
}

// ShouldLoadMore reports whether the scroll position is within
// ScrollThreshold of the bottom.
func ShouldLoadMore(scrollTop, clientHeight, scrollHeight int) bool {
	return scrollTop+clientHeight >= scrollHeight-ScrollThreshold
}

// resetLocked clears pagination for a new selection and returns the new
// generation.
func (c *Cursor) resetLocked() uint64 {
	c.state.Offset = 0
	c.state.Loading = false
	c.state.Events = nil
	c.state.Generation++
	c.state.Revision++
	return c.state.Generation
}

func (c *Cursor) snapshotLocked() State {
	s := c.state
	if s.Events != nil {
		s.Events = append([]monitor.TimelineEvent(nil), s.Events...)
	}
	if s.Cameras != nil {
		s.Cameras = append([]monitor.CameraSummary(nil), s.Cameras...)
	}
	return s
}

func (c *Cursor) notify() {
	c.mu.Lock()
	if len(c.listeners) == 0 {
		c.mu.Unlock()
		return
	}
	s := c.snapshotLocked()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func (c *Cursor) recordFetchError(err error, fallback string) {
	if c.metrics == nil {
		return
	}
	op := fallback
	var fetchErr *monitor.FetchError
	if errors.As(err, &fetchErr) && fetchErr.Op != "" {
		op = fetchErr.Op
	}
	c.metrics.RecordFetchError(op)
}

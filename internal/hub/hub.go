package hub

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/five82/visionmon/internal/envelope"
	"github.com/five82/visionmon/internal/monitor"
	"github.com/five82/visionmon/internal/state"
)

// ChangeKind names the part of the live view an update touched.
type ChangeKind int

const (
	ChangeFacility ChangeKind = iota
	ChangeCameraStates
	// ChangeCamera is a single camera replaced in place or appended.
	ChangeCamera
	// ChangeCameras means the whole camera set must be redrawn (seed or
	// eviction).
	ChangeCameras
	ChangeMessages
	ChangeAlert
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeFacility:
		return "facility"
	case ChangeCameraStates:
		return "camera_states"
	case ChangeCamera:
		return "camera"
	case ChangeCameras:
		return "cameras"
	case ChangeMessages:
		return "messages"
	case ChangeAlert:
		return "alert"
	default:
		return fmt.Sprintf("change(%d)", int(k))
	}
}

// Change describes one mutation.
type Change struct {
	Kind        ChangeKind
	CameraIndex string
	CameraID    string
}

// Update is published to listeners after each applied event.
type Update struct {
	Changes  []Change
	Snapshot state.Snapshot
}

// Has reports whether the update includes kind.
func (u Update) Has(kind ChangeKind) bool {
	for _, c := range u.Changes {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// Listener receives updates. It runs on the applying goroutine and must not
// call back into the hub.
type Listener func(Update)

// TimelineSink receives live timeline batches.
type TimelineSink interface {
	Push(events []monitor.TimelineEvent)
}

// Recorder receives event counts and cache sizes for metrics.
type Recorder interface {
	RecordEvent(kind string)
	RecordDecodeError()
	RecordUnknownAlert()
	SetSizes(cameras, messages int)
}

// Options configure a Hub.
type Options struct {
	Logger   zerolog.Logger
	Timeline TimelineSink
	Metrics  Recorder
}

// Hub is the single writer of the state store. It decodes stream payloads,
// applies them in delivery order and publishes a snapshot after each
// mutation.
type Hub struct {
	store    *state.Store
	log      zerolog.Logger
	timeline TimelineSink
	metrics  Recorder

	applyMu sync.Mutex

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New returns a hub writing to store.
func New(store *state.Store, opts Options) *Hub {
	return &Hub{
		store:     store,
		log:       opts.Logger.With().Str("component", "hub").Logger(),
		timeline:  opts.Timeline,
		metrics:   opts.Metrics,
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers fn and returns a cancel func.
func (h *Hub) Subscribe(fn Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// Snapshot returns the current state.
func (h *Hub) Snapshot() state.Snapshot {
	return h.store.Snapshot()
}

// HandleMessage decodes one raw stream payload and applies it. Decode
// failures are logged and returned; state is left unchanged.
func (h *Hub) HandleMessage(raw string) error {
	ev, err := envelope.Decode(raw)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordDecodeError()
		}
		h.log.Error().Err(err).Str("payload", truncate(raw, 200)).Msg("dropping undecodable message")
		return err
	}
	return h.Apply(ev)
}

// Apply routes a decoded event to the store. A structured event applies the
// facility label before the camera-state labels.
func (h *Hub) Apply(ev envelope.Event) error {
	h.applyMu.Lock()
	changes, kind, err := h.applyLocked(ev)
	var snap state.Snapshot
	if len(changes) > 0 {
		snap = h.store.Snapshot()
	}
	h.applyMu.Unlock()

	if kind != "" && h.metrics != nil {
		h.metrics.RecordEvent(kind)
	}
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		h.publish(Update{Changes: changes, Snapshot: snap})
	}
	return nil
}

func (h *Hub) applyLocked(ev envelope.Event) ([]Change, string, error) {
	switch ev := ev.(type) {
	case envelope.StructuredEvent:
		var changes []Change
		if ev.FacilityState != "" {
			h.store.SetFacility(ev.FacilityState)
			changes = append(changes, Change{Kind: ChangeFacility})
		}
		if ev.CameraStates != nil {
			h.store.SetCameraStates(ev.CameraStates)
			changes = append(changes, Change{Kind: ChangeCameraStates})
		}
		return changes, "structured", nil

	case envelope.UnstructuredEvent:
		msg := ev.Message
		h.store.PrependMessage(msg)
		changes := []Change{{Kind: ChangeMessages}}
		evicted, stored := h.store.UpsertCamera(msg.Snapshot())
		switch {
		case evicted != "":
			h.log.Debug().Str("camera_index", evicted).Msg("evicted oldest camera")
			changes = append(changes, Change{Kind: ChangeCameras})
		case stored:
			changes = append(changes, Change{Kind: ChangeCamera, CameraIndex: msg.CameraIndex})
		}
		return changes, "unstructured", nil

	case envelope.AlertEvent:
		status, err := h.store.ApplyAlert(ev.CameraID, ev.AlertType)
		if err != nil {
			if h.metrics != nil {
				h.metrics.RecordUnknownAlert()
			}
			h.log.Warn().
				Str("camera_id", ev.CameraID).
				Str("alert_type", ev.AlertType).
				Msg("ignoring unknown alert type")
			return nil, "alert", err
		}
		h.log.Info().
			Str("camera_id", ev.CameraID).
			Str("alert_type", ev.AlertType).
			Str("status", string(status)).
			Msg("alert status changed")
		return []Change{{Kind: ChangeAlert, CameraID: ev.CameraID}}, "alert", nil

	case envelope.TimelineBatch:
		if h.timeline != nil {
			h.timeline.Push(ev.Events)
		}
		return nil, "timeline", nil

	default:
		return nil, "", fmt.Errorf("unsupported event %T", ev)
	}
}

// Seed loads the initial payload and publishes one update redrawing the
// whole view.
func (h *Hub) Seed(initial monitor.InitialState) {
	h.applyMu.Lock()
	h.store.Seed(initial)
	snap := h.store.Snapshot()
	h.applyMu.Unlock()

	h.log.Info().
		Int("cameras", len(snap.Cameras)).
		Int("messages", len(snap.Messages)).
		Str("facility_state", snap.Facility.Label).
		Msg("seeded live view")

	h.publish(Update{
		Changes: []Change{
			{Kind: ChangeFacility},
			{Kind: ChangeCameraStates},
			{Kind: ChangeCameras},
			{Kind: ChangeMessages},
		},
		Snapshot: snap,
	})
}

func (h *Hub) publish(u Update) {
	if h.metrics != nil {
		h.metrics.SetSizes(len(u.Snapshot.Cameras), len(u.Snapshot.Messages))
	}
	h.mu.Lock()
	listeners := make([]Listener, 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(u)
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

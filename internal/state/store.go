package state

import (
	"strings"
	"sync"
	"time"

	"github.com/five82/visionmon/internal/monitor"
)

// FacilityState is the process-wide facility label.
type FacilityState struct {
	Label string
	AsOf  time.Time
}

// Snapshot is a read-only copy of the live view handed to renderers.
type Snapshot struct {
	Version      uint64
	Facility     FacilityState
	Cameras      []monitor.CameraSnapshot
	CameraStates monitor.StateLabels
	Messages     []monitor.LLMMessage
	Alerts       map[string]AlertStatus
	LastUpdated  time.Time
}

// Camera returns the snapshot for cameraIndex.
func (s Snapshot) Camera(cameraIndex string) (monitor.CameraSnapshot, bool) {
	for _, c := range s.Cameras {
		if c.CameraIndex == cameraIndex {
			return c, true
		}
	}
	return monitor.CameraSnapshot{}, false
}

// AlertFor returns the alert status for cameraID, AlertNormal when none.
func (s Snapshot) AlertFor(cameraID string) AlertStatus {
	if status, ok := s.Alerts[cameraID]; ok {
		return status
	}
	return AlertNormal
}

// Options size the store's bounded caches.
type Options struct {
	MaxCameras  int
	MaxMessages int
	Now         func() time.Time
}

// Store owns the camera registry, message log, alert tracker and facility
// state. It has a single writer (the hub) and any number of readers taking
// snapshots.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	version     uint64
	facility    FacilityState
	cameras     *Registry
	messages    *MessageLog
	alerts      *AlertTracker
	lastUpdated time.Time
}

// NewStore builds an empty store.
func NewStore(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:      now,
		cameras:  NewRegistry(opts.MaxCameras),
		messages: NewMessageLog(opts.MaxMessages),
		alerts:   NewAlertTracker(),
	}
}

// SetFacility replaces the facility label.
func (s *Store) SetFacility(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.facility = FacilityState{Label: strings.TrimSpace(label), AsOf: now}
	s.touch(now)
}

// SetCameraStates replaces the camera-state labels.
func (s *Store) SetCameraStates(labels monitor.StateLabels) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras.SetStates(labels)
	s.touch(s.now())
}

// UpsertCamera stores snap and reports the evicted key, if any.
func (s *Store) UpsertCamera(snap monitor.CameraSnapshot) (evicted string, stored bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted, stored = s.cameras.Upsert(snap)
	if stored {
		s.touch(s.now())
	}
	return evicted, stored
}

// PrependMessage adds msg at the head of the message log.
func (s *Store) PrependMessage(msg monitor.LLMMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages.Prepend(msg)
	s.touch(s.now())
}

// ApplyAlert records an alert transition. Unknown alert types change nothing.
func (s *Store) ApplyAlert(cameraID, alertType string) (AlertStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, err := s.alerts.Apply(cameraID, alertType)
	if err != nil {
		return status, err
	}
	s.touch(s.now())
	return status, nil
}

// Seed loads the initial payload: facility label, camera-state labels, camera
// feeds in order, and messages in the given order.
func (s *Store) Seed(initial monitor.InitialState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if label := strings.TrimSpace(initial.FacilityState); label != "" {
		s.facility = FacilityState{Label: label, AsOf: now}
	}
	if initial.CameraStates != nil {
		s.cameras.SetStates(initial.CameraStates)
	}
	s.cameras.Seed(initial.CameraFeeds)
	s.messages.Seed(initial.LLMOutputs)
	s.touch(now)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Version:      s.version,
		Facility:     s.facility,
		Cameras:      s.cameras.All(),
		CameraStates: s.cameras.States(),
		Messages:     s.messages.All(),
		Alerts:       s.alerts.All(),
		LastUpdated:  s.lastUpdated,
	}
}

func (s *Store) touch(now time.Time) {
	s.version++
	s.lastUpdated = now
}

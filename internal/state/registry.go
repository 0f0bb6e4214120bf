package state

import "github.com/five82/visionmon/internal/monitor"

// MaxCameras bounds the camera registry.
const MaxCameras = 16

// Registry maps camera index to the latest snapshot for that camera. Keys keep
// insertion order; replacing an existing key does not move it. When a new key
// pushes the size past the bound, the oldest-inserted key is evicted.
//
// Registry is not safe for concurrent use; Store serialises access.
type Registry struct {
	max     int
	order   []string
	cameras map[string]monitor.CameraSnapshot
	states  monitor.StateLabels
}

// NewRegistry returns an empty registry bounded to max entries. A
// non-positive max uses MaxCameras.
func NewRegistry(max int) *Registry {
	if max <= 0 {
		max = MaxCameras
	}
	return &Registry{
		max:     max,
		cameras: make(map[string]monitor.CameraSnapshot, max),
	}
}

// Upsert inserts or replaces the snapshot keyed by its CameraIndex. It reports
// whether the snapshot was stored and which key, if any, was evicted.
// Snapshots without an index are ignored.
func (r *Registry) Upsert(snap monitor.CameraSnapshot) (evicted string, stored bool) {
	key := snap.CameraIndex
	if key == "" {
		return "", false
	}
	if _, exists := r.cameras[key]; exists {
		r.cameras[key] = snap
		return "", true
	}
	r.cameras[key] = snap
	r.order = append(r.order, key)
	if len(r.order) > r.max {
		evicted = r.order[0]
		r.order = r.order[1:]
		delete(r.cameras, evicted)
	}
	return evicted, true
}

// Seed upserts each snapshot in order. The result equals the same sequence of
// single Upsert calls. It returns the evicted keys.
func (r *Registry) Seed(snaps []monitor.CameraSnapshot) []string {
	var evicted []string
	for _, snap := range snaps {
		if key, _ := r.Upsert(snap); key != "" {
			evicted = append(evicted, key)
		}
	}
	return evicted
}

// Get returns the snapshot stored for cameraIndex.
func (r *Registry) Get(cameraIndex string) (monitor.CameraSnapshot, bool) {
	snap, ok := r.cameras[cameraIndex]
	return snap, ok
}

// All returns the snapshots in insertion order.
func (r *Registry) All() []monitor.CameraSnapshot {
	if len(r.order) == 0 {
		return nil
	}
	out := make([]monitor.CameraSnapshot, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.cameras[key])
	}
	return out
}

// Len returns the number of cameras held.
func (r *Registry) Len() int {
	return len(r.order)
}

// SetStates replaces the camera-state label set.
func (r *Registry) SetStates(labels monitor.StateLabels) {
	r.states = cloneLabels(labels)
}

// State returns the label for a composite camera id.
func (r *Registry) State(compositeID string) (string, bool) {
	return r.states.Lookup(compositeID)
}

// StateForIndex returns the label whose composite id ends with cameraIndex.
func (r *Registry) StateForIndex(cameraIndex string) (string, bool) {
	for _, l := range r.states {
		if l.CameraIndex() == cameraIndex {
			return l.Label, true
		}
	}
	return "", false
}

// States returns a copy of the label set in document order.
func (r *Registry) States() monitor.StateLabels {
	return cloneLabels(r.states)
}

func cloneLabels(labels monitor.StateLabels) monitor.StateLabels {
	if labels == nil {
		return nil
	}
	dup := make(monitor.StateLabels, len(labels))
	copy(dup, labels)
	return dup
}

// Package state holds the bounded in-memory view of the facility.
//
// # Overview
//
// The live view is an explicit state object rather than module-level globals.
// A Store owns four pieces:
//
//   - Registry: camera index → latest CameraSnapshot, bounded to MaxCameras,
//     plus the camera-state labels keyed by composite camera id
//   - MessageLog: narrative messages newest-first, bounded to MaxMessages
//   - AlertTracker: latest AlertStatus per camera id
//   - FacilityState: the single facility label and when it was set
//
// Multiple independent stores can coexist, which keeps tests isolated.
//
// # Bounds and Eviction
//
// The registry evicts by insertion order, not update recency:
//
//	Upsert(A) Upsert(B) ... Upsert(P)   16 cameras, order A..P
//	Upsert(A')                          replace in place, order unchanged
//	Upsert(Q)                           A is evicted, order B..Q
//
// The message log inserts at the head and truncates the tail. Seed appends
// in the given order and truncates once.
//
// # Alert Statuses
//
//	ALERT          → "Alert triggered"
//	RESOLVED       → "Alert resolved"
//	FLAPPING_START → "Alert flapping"
//	FLAPPING_END   → "Flapping ended"
//
// Cameras with no alert report "Normal". Types match exactly, case
// included, after trimming whitespace. Any other alert_type returns
// *UnknownAlertTypeError and leaves the stored status untouched.
//
// # Concurrency Model
//
// Registry, MessageLog and AlertTracker are plain values with no locking.
// Store wraps them in a sync.RWMutex: the hub is the only writer, renderers
// call Snapshot. Every mutation bumps Snapshot.Version so a renderer
// receiving snapshots out of order can discard older ones.
//
// # Defensive Copying
//
// Snapshot clones every slice and map. Callers may mutate the returned value
// freely.
package state

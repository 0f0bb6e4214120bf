package state

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/five82/visionmon/internal/monitor"
)

func snap(index string) monitor.CameraSnapshot {
	return monitor.CameraSnapshot{CameraName: "Cam" + index, CameraIndex: index, Timestamp: "2024-01-01 12:00:00", Description: "d" + index}
}

func msg(i int) monitor.LLMMessage {
	return monitor.LLMMessage{CameraName: "Cam", CameraIndex: fmt.Sprint(i), Description: fmt.Sprintf("m%d", i)}
}

func indexes(snaps []monitor.CameraSnapshot) []string {
	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.CameraIndex)
	}
	return out
}

func TestRegistry_EvictsOldestInsertedNotLeastRecentlyUpdated(t *testing.T) {
	r := NewRegistry(3)
	r.Upsert(snap("a"))
	r.Upsert(snap("b"))
	r.Upsert(snap("c"))

	// Updating "a" must not refresh its position.
	updated := snap("a")
	updated.Description = "fresh"
	if evicted, stored := r.Upsert(updated); !stored || evicted != "" {
		t.Fatalf("Upsert(existing) = (%q, %v), want no eviction", evicted, stored)
	}

	evicted, _ := r.Upsert(snap("d"))
	if evicted != "a" {
		t.Fatalf("evicted = %q, want a", evicted)
	}
	if got := indexes(r.All()); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Fatalf("All() = %v, want [b c d]", got)
	}
	if _, ok := r.Get("a"); ok {
		t.Fatalf("Get(a) found evicted camera")
	}
}

func TestRegistry_SizeNeverExceedsBound(t *testing.T) {
	r := NewRegistry(0)
	var inserted []string
	for i := 0; i < 100; i++ {
		key := fmt.Sprint(i % 37)
		if _, exists := r.Get(key); !exists {
			inserted = append(inserted, key)
		}
		r.Upsert(snap(key))
		if r.Len() > MaxCameras {
			t.Fatalf("Len() = %d after %d upserts, want <= %d", r.Len(), i+1, MaxCameras)
		}
		// Surviving keys are always the most recently inserted ones, in order.
		want := inserted
		if len(want) > MaxCameras {
			want = want[len(want)-MaxCameras:]
		}
		if got := indexes(r.All()); !reflect.DeepEqual(got, want) {
			t.Fatalf("after %d upserts All() = %v, want %v", i+1, got, want)
		}
		inserted = want
	}
}

func TestRegistry_IgnoresEmptyIndex(t *testing.T) {
	r := NewRegistry(2)
	if _, stored := r.Upsert(monitor.CameraSnapshot{CameraName: "x"}); stored {
		t.Fatalf("Upsert without index stored a camera")
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_SeedRoundTrip(t *testing.T) {
	r := NewRegistry(MaxCameras)
	var seed []monitor.CameraSnapshot
	for i := 0; i < MaxCameras; i++ {
		seed = append(seed, snap(fmt.Sprint(i)))
	}
	if evicted := r.Seed(seed); len(evicted) != 0 {
		t.Fatalf("Seed evicted %v, want none", evicted)
	}
	if got := r.All(); !reflect.DeepEqual(got, seed) {
		t.Fatalf("All() = %v, want seed order", indexes(got))
	}
}

func TestRegistry_SeedMatchesRepeatedUpserts(t *testing.T) {
	var seed []monitor.CameraSnapshot
	for i := 0; i < 20; i++ {
		seed = append(seed, snap(fmt.Sprint(i%18)))
	}
	seeded := NewRegistry(4)
	evicted := seeded.Seed(seed)

	manual := NewRegistry(4)
	var manualEvicted []string
	for _, s := range seed {
		if key, _ := manual.Upsert(s); key != "" {
			manualEvicted = append(manualEvicted, key)
		}
	}
	if !reflect.DeepEqual(seeded.All(), manual.All()) {
		t.Fatalf("Seed = %v, repeated Upsert = %v", indexes(seeded.All()), indexes(manual.All()))
	}
	if !reflect.DeepEqual(evicted, manualEvicted) {
		t.Fatalf("Seed evicted %v, want %v", evicted, manualEvicted)
	}
}

func TestRegistry_States(t *testing.T) {
	r := NewRegistry(4)
	labels := monitor.StateLabels{{CompositeID: "Lobby 1", Label: "Busy"}, {CompositeID: "Dock 2", Label: "Quiet"}}
	r.SetStates(labels)
	labels[0].Label = "mutated"

	if got, ok := r.State("Lobby 1"); !ok || got != "Busy" {
		t.Fatalf("State(Lobby 1) = %q, %v; want Busy (copy on set)", got, ok)
	}
	if got, ok := r.StateForIndex("2"); !ok || got != "Quiet" {
		t.Fatalf("StateForIndex(2) = %q, %v; want Quiet", got, ok)
	}

	r.SetStates(monitor.StateLabels{{CompositeID: "Dock 2", Label: "Busy"}})
	if _, ok := r.State("Lobby 1"); ok {
		t.Fatalf("SetStates should replace the whole label set")
	}
}

func TestMessageLog_BoundedNewestFirst(t *testing.T) {
	l := NewMessageLog(0)
	for i := 0; i < 120; i++ {
		l.Prepend(msg(i))
		if l.Len() > MaxMessages {
			t.Fatalf("Len() = %d, want <= %d", l.Len(), MaxMessages)
		}
	}
	all := l.All()
	if len(all) != MaxMessages {
		t.Fatalf("len = %d, want %d", len(all), MaxMessages)
	}
	for i, m := range all {
		want := fmt.Sprintf("m%d", 119-i)
		if m.Description != want {
			t.Fatalf("all[%d] = %q, want %q", i, m.Description, want)
		}
	}
}

func TestMessageLog_SeedAppendsThenCapsOnce(t *testing.T) {
	l := NewMessageLog(3)
	l.Prepend(msg(100))
	l.Seed([]monitor.LLMMessage{msg(1), msg(2), msg(3), msg(4)})

	var got []string
	for _, m := range l.All() {
		got = append(got, m.Description)
	}
	if !reflect.DeepEqual(got, []string{"m100", "m1", "m2"}) {
		t.Fatalf("All() = %v, want [m100 m1 m2]", got)
	}
}

func TestAlertTracker_Transitions(t *testing.T) {
	tracker := NewAlertTracker()
	if got := tracker.Status("7"); got != AlertNormal {
		t.Fatalf("initial status = %q, want %q", got, AlertNormal)
	}

	steps := []struct {
		alertType string
		want      AlertStatus
	}{
		{"ALERT", AlertTriggered},
		{"FLAPPING_START", AlertFlapping},
		{" FLAPPING_END ", AlertFlappingEnded},
		{"RESOLVED", AlertResolved},
	}
	for _, step := range steps {
		got, err := tracker.Apply("7", step.alertType)
		if err != nil {
			t.Fatalf("Apply(%q) returned error: %v", step.alertType, err)
		}
		if got != step.want || tracker.Status("7") != step.want {
			t.Fatalf("Apply(%q) = %q, want %q", step.alertType, got, step.want)
		}
	}
}

func TestAlertTracker_UnknownTypeIsNoOp(t *testing.T) {
	tracker := NewAlertTracker()
	tracker.Apply("7", AlertTypeAlert)

	got, err := tracker.Apply("7", "EXPLODED")
	var unknown *UnknownAlertTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("Apply error = %v, want *UnknownAlertTypeError", err)
	}
	if unknown.CameraID != "7" || unknown.AlertType != "EXPLODED" {
		t.Fatalf("error = %#v", unknown)
	}
	if got != AlertTriggered || tracker.Status("7") != AlertTriggered {
		t.Fatalf("status = %q, want unchanged %q", tracker.Status("7"), AlertTriggered)
	}

	if _, err := tracker.Apply("8", "nope"); err == nil {
		t.Fatalf("Apply(unknown) returned nil error")
	}
	if _, ok := tracker.All()["8"]; ok {
		t.Fatalf("unknown type should not create an entry")
	}
}

func TestAlertTracker_TypeMatchIsCaseSensitive(t *testing.T) {
	tracker := NewAlertTracker()

	got, err := tracker.Apply("7", "alert")
	var unknown *UnknownAlertTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("Apply(\"alert\") error = %v, want *UnknownAlertTypeError", err)
	}
	if got != AlertNormal || tracker.Status("7") != AlertNormal {
		t.Fatalf("status = %q, want %q", tracker.Status("7"), AlertNormal)
	}
}

func TestStore_SnapshotClonesAndVersions(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(Options{Now: func() time.Time { return clock }})

	s.SetFacility("  Busy ")
	s.UpsertCamera(snap("1"))
	s.PrependMessage(msg(1))
	s.ApplyAlert("1", AlertTypeAlert)

	first := s.Snapshot()
	if first.Version != 4 {
		t.Fatalf("Version = %d, want 4", first.Version)
	}
	if first.Facility.Label != "Busy" || !first.Facility.AsOf.Equal(clock) {
		t.Fatalf("Facility = %#v", first.Facility)
	}
	if first.AlertFor("1") != AlertTriggered || first.AlertFor("2") != AlertNormal {
		t.Fatalf("alerts = %#v", first.Alerts)
	}

	first.Cameras[0].Description = "mutated"
	first.Messages[0].Description = "mutated"
	first.Alerts["1"] = AlertResolved

	second := s.Snapshot()
	if second.Cameras[0].Description != "d1" || second.Messages[0].Description != "m1" || second.Alerts["1"] != AlertTriggered {
		t.Fatalf("Snapshot should clone state; got %#v", second)
	}

	if _, err := s.ApplyAlert("1", "bogus"); err == nil {
		t.Fatalf("ApplyAlert(bogus) returned nil error")
	}
	if s.Snapshot().Version != 4 {
		t.Fatalf("unknown alert should not bump version")
	}
}

func TestStore_Seed(t *testing.T) {
	s := NewStore(Options{MaxCameras: 2, MaxMessages: 2})
	s.Seed(monitor.InitialState{
		FacilityState: "Quiet",
		CameraStates:  monitor.StateLabels{{CompositeID: "Lobby 1", Label: "Busy"}},
		CameraFeeds:   []monitor.CameraSnapshot{snap("1"), snap("2"), snap("3")},
		LLMOutputs:    []monitor.LLMMessage{msg(1), msg(2), msg(3)},
	})

	got := s.Snapshot()
	if got.Facility.Label != "Quiet" {
		t.Fatalf("Facility = %q, want Quiet", got.Facility.Label)
	}
	if !reflect.DeepEqual(indexes(got.Cameras), []string{"2", "3"}) {
		t.Fatalf("Cameras = %v, want [2 3]", indexes(got.Cameras))
	}
	if len(got.Messages) != 2 || got.Messages[0].Description != "m1" {
		t.Fatalf("Messages = %#v, want first two in order", got.Messages)
	}
	if label, ok := got.CameraStates.Lookup("Lobby 1"); !ok || label != "Busy" {
		t.Fatalf("CameraStates = %#v", got.CameraStates)
	}
	if cam, ok := got.Camera("3"); !ok || cam.CameraName != "Cam3" {
		t.Fatalf("Camera(3) = %#v, %v", cam, ok)
	}
}

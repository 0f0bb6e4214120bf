package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/five82/visionmon/internal/monitor"
	"github.com/five82/visionmon/internal/state"
)

func sampleSnapshot() state.Snapshot {
	return state.Snapshot{
		Version:  3,
		Facility: state.FacilityState{Label: "Busy"},
		Cameras: []monitor.CameraSnapshot{
			{CameraName: "Lobby", CameraIndex: "1", Timestamp: "2024-01-01 12:00:00", Description: "Person detected"},
			{CameraName: "Dock", CameraIndex: "2", Timestamp: "2024-01-01 12:01:00", Description: "Truck"},
		},
		CameraStates: monitor.StateLabels{
			{CompositeID: "Lobby 1", Label: "Busy"},
			{CompositeID: "Dock 2", Label: "Quiet"},
		},
		Messages: []monitor.LLMMessage{
			{CameraName: "Dock", CameraIndex: "2", Description: "Truck"},
			{CameraName: "Lobby", CameraIndex: "1", Description: "Person detected"},
		},
		LastUpdated: time.Date(2024, 1, 1, 12, 1, 0, 123456789, time.UTC),
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.cbor")
	snap := sampleSnapshot()

	if err := Save(path, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entry, found, err := Load(path)
	if err != nil || !found {
		t.Fatalf("Load = found %v, err %v", found, err)
	}
	if !entry.SavedAt.Equal(snap.LastUpdated) {
		t.Fatalf("SavedAt = %v, want %v", entry.SavedAt, snap.LastUpdated)
	}
	got := entry.State
	if got.FacilityState != "Busy" {
		t.Fatalf("FacilityState = %q, want Busy", got.FacilityState)
	}
	if !reflect.DeepEqual(got.CameraFeeds, snap.Cameras) {
		t.Fatalf("CameraFeeds = %+v", got.CameraFeeds)
	}
	if !reflect.DeepEqual(got.LLMOutputs, snap.Messages) {
		t.Fatalf("LLMOutputs = %+v", got.LLMOutputs)
	}
	if !reflect.DeepEqual(got.CameraStates, snap.CameraStates) {
		t.Fatalf("CameraStates = %+v, want document order kept", got.CameraStates)
	}

	// Seeding a fresh store from the cache reproduces the cameras in order.
	store := state.NewStore(state.Options{})
	store.Seed(got)
	if !reflect.DeepEqual(store.Snapshot().Cameras, snap.Cameras) {
		t.Fatalf("seeded cameras = %+v", store.Snapshot().Cameras)
	}
}

func TestSave_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.cbor")
	b := filepath.Join(dir, "b.cbor")
	if err := Save(a, sampleSnapshot()); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if err := Save(b, sampleSnapshot()); err != nil {
		t.Fatalf("Save b: %v", err)
	}
	da, _ := os.ReadFile(a)
	db, _ := os.ReadFile(b)
	if !bytes.Equal(da, db) {
		t.Fatalf("encodings differ for identical snapshots")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("dir has %d entries, want no leftover temp files", len(entries))
	}
}

func TestLoad_Missing(t *testing.T) {
	_, found, err := Load(filepath.Join(t.TempDir(), "absent.cbor"))
	if err != nil || found {
		t.Fatalf("Load(missing) = found %v, err %v; want false, nil", found, err)
	}
	if _, found, err := Load(""); err != nil || found {
		t.Fatalf("Load(\"\") = found %v, err %v", found, err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.cbor")
	if err := os.WriteFile(path, []byte{0xff, 0x00, 0x13}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, found, err := Load(path); err == nil || found {
		t.Fatalf("Load(corrupt) = found %v, err %v; want error", found, err)
	}
}

func TestLoad_OtherVersionIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.cbor")
	data, err := cbor.Marshal(record{Version: formatVersion + 1, FacilityState: "Busy"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, found, err := Load(path); err != nil || found {
		t.Fatalf("Load(other version) = found %v, err %v; want false, nil", found, err)
	}
}

func TestSave_EmptyPath(t *testing.T) {
	if err := Save("", sampleSnapshot()); err == nil {
		t.Fatalf("Save(\"\") returned nil error")
	}
}

package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/visionmon/internal/cache"
	"github.com/five82/visionmon/internal/monitor"
	"github.com/five82/visionmon/internal/state"
)

type countingLoader struct {
	calls atomic.Int32
	err   error
}

func (l *countingLoader) LoadCameras(context.Context) error {
	l.calls.Add(1)
	return l.err
}

func seededStore() *state.Store {
	store := state.NewStore(state.Options{})
	store.Seed(monitor.InitialState{
		FacilityState: "Quiet",
		CameraFeeds: []monitor.CameraSnapshot{
			{CameraName: "Lobby", CameraIndex: "1", Timestamp: "2024-01-01 12:00:00", Description: "Empty"},
		},
	})
	return store
}

func TestPollerCheckpoint_SavesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.cbor")
	p := &Poller{Hub: seededStore(), CachePath: path, Logger: zerolog.Nop()}

	p.Checkpoint()

	entry, found, err := cache.Load(path)
	if err != nil || !found {
		t.Fatalf("Load = found %v, err %v", found, err)
	}
	if entry.State.FacilityState != "Quiet" || len(entry.State.CameraFeeds) != 1 {
		t.Fatalf("cached state = %+v", entry.State)
	}
}

func TestPollerCheckpoint_SkipsUntouchedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.cbor")
	p := &Poller{Hub: state.NewStore(state.Options{}), CachePath: path, Logger: zerolog.Nop()}

	p.Checkpoint()

	if _, found, _ := cache.Load(path); found {
		t.Fatal("empty store was checkpointed")
	}
}

func TestPollerRun_RefreshesUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.cbor")
	loader := &countingLoader{err: errors.New("backend down")}
	p := &Poller{
		Hub:       seededStore(),
		Cameras:   loader,
		CachePath: path,
		Interval:  10 * time.Millisecond,
		Logger:    zerolog.Nop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for loader.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("LoadCameras calls = %d, want >= 2", loader.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// A failed camera refresh does not block the checkpoint.
	if _, found, err := cache.Load(path); err != nil || !found {
		t.Fatalf("checkpoint missing: found %v, err %v", found, err)
	}
}

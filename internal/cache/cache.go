// Package cache keeps a best-effort copy of the last live view on disk so a
// restart can render something before the backend answers.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/five82/visionmon/internal/monitor"
	"github.com/five82/visionmon/internal/state"
)

// formatVersion is bumped when the record layout changes; older files are
// ignored rather than migrated.
const formatVersion = 1

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("cache: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("cache: CBOR decoder initialization failed: " + err.Error())
	}
}

type label struct {
	ID    string `cbor:"id"`
	Label string `cbor:"label"`
}

type record struct {
	Version       int                      `cbor:"version"`
	SavedAt       time.Time                `cbor:"saved_at"`
	FacilityState string                   `cbor:"facility_state,omitempty"`
	CameraStates  []label                  `cbor:"camera_states,omitempty"`
	Cameras       []monitor.CameraSnapshot `cbor:"cameras,omitempty"`
	Messages      []monitor.LLMMessage     `cbor:"messages,omitempty"`
}

// Entry is a loaded cache file.
type Entry struct {
	SavedAt time.Time
	State   monitor.InitialState
}

// Save writes snap to path atomically (temp file + rename). Parent
// directories are created as needed.
func Save(path string, snap state.Snapshot) error {
	if path == "" {
		return errors.New("cache path is empty")
	}
	rec := record{
		Version:       formatVersion,
		SavedAt:       snap.LastUpdated,
		FacilityState: snap.Facility.Label,
		Cameras:       snap.Cameras,
		Messages:      snap.Messages,
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}
	for _, l := range snap.CameraStates {
		rec.CameraStates = append(rec.CameraStates, label{ID: l.CompositeID, Label: l.Label})
	}

	data, err := encMode.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.cbor")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close cache: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename cache: %w", err)
	}
	return nil
}

// Load reads the cache at path. A missing file or an unknown format version
// returns found=false with no error; a corrupt file returns an error.
func Load(path string) (Entry, bool, error) {
	if path == "" {
		return Entry{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("read cache: %w", err)
	}
	var rec record
	if err := decMode.Unmarshal(data, &rec); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache: %w", err)
	}
	if rec.Version != formatVersion {
		return Entry{}, false, nil
	}

	initial := monitor.InitialState{
		FacilityState: rec.FacilityState,
		CameraFeeds:   rec.Cameras,
		LLMOutputs:    rec.Messages,
	}
	for _, l := range rec.CameraStates {
		initial.CameraStates = append(initial.CameraStates, monitor.StateLabel{CompositeID: l.ID, Label: l.Label})
	}
	return Entry{SavedAt: rec.SavedAt, State: initial}, true, nil
}

package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/visionmon/internal/cache"
	"github.com/five82/visionmon/internal/state"
)

const (
	defaultCheckpointInterval = time.Minute
	cameraRefreshTimeout      = 10 * time.Second
)

// SnapshotSource provides the live view to checkpoint.
type SnapshotSource interface {
	Snapshot() state.Snapshot
}

// CameraLoader refreshes the selectable camera list.
type CameraLoader interface {
	LoadCameras(ctx context.Context) error
}

// Poller refreshes the camera list and checkpoints the live view to the
// state cache at a fixed cadence.
type Poller struct {
	Hub       SnapshotSource
	Cameras   CameraLoader
	CachePath string
	Interval  time.Duration
	Logger    zerolog.Logger
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultCheckpointInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		p.refresh(ctx)
	}
}

func (p *Poller) refresh(ctx context.Context) {
	if p.Cameras != nil {
		refreshCtx, cancel := context.WithTimeout(ctx, cameraRefreshTimeout)
		err := p.Cameras.LoadCameras(refreshCtx)
		cancel()
		if err != nil && ctx.Err() == nil {
			p.Logger.Warn().Err(err).Msg("camera list refresh failed")
		}
	}
	p.Checkpoint()
}

// Checkpoint saves the live view. Nothing is written before the first
// mutation so an unreachable backend never overwrites a good cache.
func (p *Poller) Checkpoint() {
	if p.CachePath == "" || p.Hub == nil {
		return
	}
	snap := p.Hub.Snapshot()
	if snap.Version == 0 {
		return
	}
	if err := cache.Save(p.CachePath, snap); err != nil {
		p.Logger.Warn().Err(err).Str("path", p.CachePath).Msg("state checkpoint failed")
		return
	}
	p.Logger.Debug().
		Str("path", p.CachePath).
		Uint64("version", snap.Version).
		Msg("state checkpoint saved")
}

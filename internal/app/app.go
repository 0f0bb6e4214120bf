package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/visionmon/internal/cache"
	"github.com/five82/visionmon/internal/config"
	"github.com/five82/visionmon/internal/hub"
	"github.com/five82/visionmon/internal/logging"
	"github.com/five82/visionmon/internal/metrics"
	"github.com/five82/visionmon/internal/monitor"
	"github.com/five82/visionmon/internal/prefs"
	"github.com/five82/visionmon/internal/state"
	"github.com/five82/visionmon/internal/stream"
	"github.com/five82/visionmon/internal/timeline"
	"github.com/five82/visionmon/internal/ui"
)

const seedTimeout = 10 * time.Second

// Options configure the visionmon application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/visionmon/prefs.toml
	// Headless logs live updates to Out instead of starting the TUI.
	Headless bool
	// Out receives console logs in headless mode; stderr when nil.
	Out io.Writer
	// CheckpointEvery is the cache checkpoint interval; zero uses the default.
	CheckpointEvery time.Duration
}

// Run boots visionmon until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closeLog, err := openLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = closeLog() }()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	client, err := monitor.NewClient(cfg.Server, monitor.WithInitialStatePath(cfg.InitialStatePath))
	if err != nil {
		return fmt.Errorf("init monitor client: %w", err)
	}
	streamClient, err := stream.New(cfg.Server, stream.Options{Path: cfg.StreamPath, Logger: log})
	if err != nil {
		return fmt.Errorf("init stream client: %w", err)
	}

	rec := metrics.New()
	cursor := timeline.NewCursor(client, timeline.Options{Logger: log, Metrics: rec})
	store := state.NewStore(state.Options{})
	h := hub.New(store, hub.Options{Logger: log, Timeline: cursor, Metrics: rec})

	log.Info().
		Str("server", client.BaseURL().String()).
		Str("stream", streamClient.URL()).
		Bool("headless", opts.Headless).
		Msg("visionmon starting")

	// Seed before the stream starts so live events apply on top of it.
	seed(ctx, h, client, cfg.CacheFile(), log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := metrics.Serve(gctx, cfg.MetricsAddr, rec, log); err != nil {
			log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics endpoint disabled")
		}
		return nil
	})
	g.Go(func() error {
		return streamClient.Run(gctx, func(raw string) {
			// Decode and unknown-alert errors are logged by the hub.
			_ = h.HandleMessage(raw)
		})
	})
	poller := &Poller{
		Hub:       h,
		Cameras:   cursor,
		CachePath: cfg.CacheFile(),
		Interval:  opts.CheckpointEvery,
		Logger:    log,
	}
	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		if opts.Headless {
			return runHeadless(gctx, h, log)
		}
		return ui.Run(ui.Options{
			Context:   gctx,
			Hub:       h,
			Cursor:    cursor,
			Stream:    streamClient,
			Links:     client,
			LogPath:   cfg.LogFile,
			PrefsPath: opts.PrefsPath,
			Prefs:     userPrefs,
			Logger:    log,
		})
	})

	err = g.Wait()
	poller.Checkpoint()
	log.Info().Msg("visionmon stopped")
	return err
}

// openLogger logs to the console in headless mode and to the configured
// file otherwise, since the TUI owns the terminal.
func openLogger(cfg config.Config, opts Options) (zerolog.Logger, func() error, error) {
	if opts.Headless {
		out := opts.Out
		if out == nil {
			out = os.Stderr
		}
		return logging.Console(out, cfg.Level()), func() error { return nil }, nil
	}
	return logging.Open(cfg.LogFile, cfg.Level())
}

type initialStateFetcher interface {
	FetchInitialState(ctx context.Context) (monitor.InitialState, error)
}

// seed loads the initial payload from the backend, falling back to the last
// cached live view when the backend is unreachable.
func seed(ctx context.Context, h *hub.Hub, fetcher initialStateFetcher, cachePath string, log zerolog.Logger) {
	fetchCtx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	initial, err := fetcher.FetchInitialState(fetchCtx)
	if err == nil {
		h.Seed(initial)
		return
	}
	log.Warn().Err(err).Msg("initial state fetch failed")

	entry, found, err := cache.Load(cachePath)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("path", cachePath).Msg("state cache unreadable")
	case !found:
		log.Info().Msg("no cached state, starting empty")
	default:
		log.Info().
			Time("saved_at", entry.SavedAt).
			Str("path", cachePath).
			Msg("seeding from cached state")
		h.Seed(entry.State)
	}
}

// runHeadless logs every live update until ctx is cancelled.
func runHeadless(ctx context.Context, h *hub.Hub, log zerolog.Logger) error {
	cancel := h.Subscribe(func(u hub.Update) {
		kinds := make([]string, 0, len(u.Changes))
		for _, c := range u.Changes {
			kinds = append(kinds, c.Kind.String())
		}
		log.Info().
			Strs("changes", kinds).
			Uint64("version", u.Snapshot.Version).
			Str("facility_state", u.Snapshot.Facility.Label).
			Int("cameras", len(u.Snapshot.Cameras)).
			Int("messages", len(u.Snapshot.Messages)).
			Msg("live view updated")
	})
	defer cancel()
	<-ctx.Done()
	return nil
}

// Package metrics exposes client counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "visionmon"

// Recorder owns the client's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	events        *prometheus.CounterVec
	decodeErrors  prometheus.Counter
	fetchErrors   *prometheus.CounterVec
	unknownAlerts prometheus.Counter
	cameras       prometheus.Gauge
	messages      prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Stream events applied, by kind.",
		}, []string{"kind"}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Stream payloads dropped because they could not be decoded.",
		}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed backend fetches, by operation.",
		}, []string{"op"}),
		unknownAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_alerts_total",
			Help:      "Alert events with an unrecognised alert_type.",
		}),
		cameras: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cameras",
			Help:      "Cameras held in the live view.",
		}),
		messages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "messages",
			Help:      "Messages held in the live view.",
		}),
	}
	r.registry.MustRegister(r.events, r.decodeErrors, r.fetchErrors, r.unknownAlerts, r.cameras, r.messages)
	return r
}

// Gatherer returns the registry for scraping.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

func (r *Recorder) RecordEvent(kind string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordDecodeError() {
	if r == nil {
		return
	}
	r.decodeErrors.Inc()
}

func (r *Recorder) RecordFetchError(op string) {
	if r == nil {
		return
	}
	r.fetchErrors.WithLabelValues(op).Inc()
}

func (r *Recorder) RecordUnknownAlert() {
	if r == nil {
		return
	}
	r.unknownAlerts.Inc()
}

func (r *Recorder) SetSizes(cameras, messages int) {
	if r == nil {
		return
	}
	r.cameras.Set(float64(cameras))
	r.messages.Set(float64(messages))
}

// Handler serves the registry at /metrics.
func (r *Recorder) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{}))
	return mux
}

// Serve listens on addr until ctx is cancelled. An empty addr disables the
// endpoint and returns immediately.
func Serve(ctx context.Context, addr string, r *Recorder, log zerolog.Logger) error {
	if addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server forced to shutdown")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("metrics listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

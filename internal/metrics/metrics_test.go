package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()
	r.RecordEvent("alert")
	r.RecordEvent("alert")
	r.RecordEvent("unstructured")
	r.RecordDecodeError()
	r.RecordFetchError("timeline page")
	r.RecordUnknownAlert()
	r.SetSizes(3, 12)

	if got := testutil.ToFloat64(r.events.WithLabelValues("alert")); got != 2 {
		t.Fatalf("events{alert} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.decodeErrors); got != 1 {
		t.Fatalf("decode errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.fetchErrors.WithLabelValues("timeline page")); got != 1 {
		t.Fatalf("fetch errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.cameras); got != 3 {
		t.Fatalf("cameras = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.messages); got != 12 {
		t.Fatalf("messages = %v, want 12", got)
	}
}

func TestRecorder_NilIsNoOp(t *testing.T) {
	var r *Recorder
	r.RecordEvent("alert")
	r.RecordDecodeError()
	r.RecordFetchError("x")
	r.RecordUnknownAlert()
	r.SetSizes(1, 1)
	if r.Gatherer() == nil {
		t.Fatalf("Gatherer() = nil")
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	r := New()
	r.RecordUnknownAlert()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "visionmon_unknown_alerts_total 1") {
		t.Fatalf("body missing counter:\n%s", body)
	}
}

func TestServe_EmptyAddrDisabled(t *testing.T) {
	if err := Serve(context.Background(), "", New(), zerolog.Nop()); err != nil {
		t.Fatalf("Serve(\"\") = %v", err)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", New(), zerolog.Nop()) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Serve = %v", err)
	}
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/five82/visionmon/internal/monitor"
)

const (
	defaultPath        = "/ws/llm_output/"
	defaultBaseBackoff = 2 * time.Second
	maxBackoff         = 30 * time.Second
	handshakeTimeout   = 10 * time.Second
)

// Handler receives one raw text frame.
type Handler func(raw string)

// Status describes the connection for the header bar.
type Status struct {
	URL         string
	Connected   bool
	Failures    int
	LastError   string
	LastMessage time.Time
	Messages    uint64
}

// Options configure a Client.
type Options struct {
	Path        string
	Logger      zerolog.Logger
	BaseBackoff time.Duration
	Header      http.Header
	Dialer      *websocket.Dialer
}

// Client reads the live event stream over a websocket and reconnects with
// capped exponential backoff.
type Client struct {
	url     string
	log     zerolog.Logger
	base    time.Duration
	header  http.Header
	dialer  *websocket.Dialer
	mu      sync.RWMutex
	status  Status
	running bool
}

// New builds a client for the stream at path on server. The server accepts
// the same forms as the HTTP client; http maps to ws and https to wss.
func New(server string, opts Options) (*Client, error) {
	base, err := monitor.ParseBaseURL(server)
	if err != nil {
		return nil, err
	}
	switch base.Scheme {
	case "https", "wss":
		base.Scheme = "wss"
	default:
		base.Scheme = "ws"
	}
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = defaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base.Path = path

	backoff := opts.BaseBackoff
	if backoff <= 0 {
		backoff = defaultBaseBackoff
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		}
	}
	u := base.String()
	return &Client{
		url:    u,
		log:    opts.Logger.With().Str("component", "stream").Str("url", u).Logger(),
		base:   backoff,
		header: opts.Header,
		dialer: dialer,
		status: Status{URL: u},
	}, nil
}

// URL returns the websocket URL.
func (c *Client) URL() string {
	return c.url
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Run reads frames and passes each to handle, in delivery order, until ctx
// is cancelled. Connection failures are logged and retried; Run only returns
// early if it is already running.
func (c *Client) Run(ctx context.Context, handle Handler) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("stream already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.status.Connected = false
		c.mu.Unlock()
	}()

	failures := 0
	for {
		received, err := c.session(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		if received {
			failures = 0
		}
		wait := calculateBackoff(failures, c.base)
		failures++
		c.recordFailure(failures, err)
		c.log.Warn().Err(err).Int("failures", failures).Dur("retry_in", wait).Msg("stream disconnected")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connection until it fails. It reports whether any frame
// was received so the caller can reset its backoff.
func (c *Client) session(ctx context.Context, handle Handler) (bool, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.status.Connected = true
	c.status.LastError = ""
	c.mu.Unlock()
	c.log.Info().Msg("stream connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	received := false
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.status.Connected = false
			c.mu.Unlock()
			return received, fmt.Errorf("read: %w", err)
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		received = true
		c.mu.Lock()
		c.status.LastMessage = time.Now()
		c.status.Messages++
		c.status.Failures = 0
		c.mu.Unlock()
		handle(string(data))
	}
}

func (c *Client) recordFailure(failures int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Connected = false
	c.status.Failures = failures
	if err != nil {
		c.status.LastError = err.Error()
	}
}

// calculateBackoff returns base * 2^failures, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return min(base, maxBackoff)
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

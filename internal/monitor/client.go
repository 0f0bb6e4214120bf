package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Timeline routes. Camera-filtered requests without a date range share the
// global paginated route and are narrowed by the camera_id parameter.
const (
	EndpointTimeline             = "/get_timeline_events_paginated"
	EndpointCameraTimeline       = "/get_timeline_events_paginated"
	EndpointTimelineByDate       = "/get_timeline_events_by_date_paginated"
	EndpointCameraTimelineByDate = "/get_timeline_events_by_date"

	endpointCameraEvents   = "/get_timeline_events/{cameraID}"
	endpointLatestAnalyses = "/get_latest_frame_analyses/"
)

// Fetcher defines the backend queries the timeline cursor depends on.
// This interface is implemented by *Client and can be used for testing.
type Fetcher interface {
	FetchTimeline(ctx context.Context, query TimelineQuery) ([]TimelineEvent, error)
	FetchCameraTimeline(ctx context.Context, cameraID string) ([]TimelineEvent, error)
	FetchLatestAnalyses(ctx context.Context) ([]CameraSummary, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// FetchError reports a failed backend request with its operation context.
type FetchError struct {
	Op       string
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: api %s returned status %d", e.Op, e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client talks to the monitoring backend's HTTP API.
type Client struct {
	baseURL          *url.URL
	http             *resty.Client
	initialStatePath string
}

const (
	defaultServer           = "127.0.0.1:8000"
	defaultUserAgent        = "visionmon/0.1"
	defaultInitialStatePath = "/initial_state/"
	requestTimeout          = 10 * time.Second
)

// Option customises a Client.
type Option func(*Client)

// WithInitialStatePath overrides the route serving the seed payload.
func WithInitialStatePath(path string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			c.initialStatePath = trimmed
		}
	}
}

// NewClient builds a Client for the given host:port or URL.
func NewClient(server string, opts ...Option) (*Client, error) {
	base, err := ParseBaseURL(server)
	if err != nil {
		return nil, err
	}
	httpClient := resty.New().
		SetBaseURL(base.String()).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", defaultUserAgent)

	c := &Client{
		baseURL:          base,
		http:             httpClient,
		initialStatePath: defaultInitialStatePath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised backend URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// FetchInitialState retrieves the seed payload for a new session.
func (c *Client) FetchInitialState(ctx context.Context) (InitialState, error) {
	if c == nil {
		return InitialState{}, fmt.Errorf("client is nil")
	}
	var payload InitialState
	if err := c.get(ctx, "initial state", c.initialStatePath, nil, nil, &payload); err != nil {
		return InitialState{}, err
	}
	return payload, nil
}

// FetchTimeline retrieves one page of timeline events using the route the
// query's filters select.
func (c *Client) FetchTimeline(ctx context.Context, query TimelineQuery) ([]TimelineEvent, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload TimelinePage
	if err := c.get(ctx, "timeline page", query.Endpoint(), query.Values(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Events, nil
}

// FetchCameraTimeline retrieves the first timeline chunk for one camera.
func (c *Client) FetchCameraTimeline(ctx context.Context, cameraID string) ([]TimelineEvent, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	cameraID = strings.TrimSpace(cameraID)
	if cameraID == "" {
		return nil, fmt.Errorf("camera id required")
	}
	var payload TimelinePage
	params := map[string]string{"cameraID": cameraID}
	if err := c.get(ctx, "camera timeline", endpointCameraEvents, nil, params, &payload); err != nil {
		return nil, err
	}
	return payload.Events, nil
}

// FetchLatestAnalyses retrieves the latest per-camera analyses.
func (c *Client) FetchLatestAnalyses(ctx context.Context) ([]CameraSummary, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload latestAnalysesResponse
	if err := c.get(ctx, "latest analyses", endpointLatestAnalyses, nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.summaries(), nil
}

// LatestImagePath is the route of a camera's most recent frame.
func LatestImagePath(cameraIndex string) string {
	return "/get_latest_image/" + url.PathEscape(cameraIndex)
}

// CompositeImagePath is the route of a camera's composite thumbnail.
func CompositeImagePath(cameraName string) string {
	return "/get_composite_image/" + url.PathEscape(cameraName)
}

// FrameImagePath is the route of the frame behind a timeline event.
func FrameImagePath(dataID ID) string {
	return "/get_frame_image/" + url.PathEscape(string(dataID))
}

// ResolveURL joins an API-relative path onto the backend URL.
func (c *Client) ResolveURL(path string) string {
	rel, err := url.Parse(path)
	if err != nil {
		return path
	}
	return c.baseURL.ResolveReference(rel).String()
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, pathParams map[string]string, dest any) error {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if len(pathParams) > 0 {
		req.SetPathParams(pathParams)
	}
	resp, err := req.Get(path)
	if err != nil {
		return &FetchError{Op: op, Endpoint: path, Err: fmt.Errorf("execute request: %w", err)}
	}
	if resp.IsError() {
		return &FetchError{Op: op, Endpoint: path, Status: resp.StatusCode(), Err: errors.New(resp.Status())}
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return &FetchError{Op: op, Endpoint: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// ParseBaseURL normalises a host:port or URL into a scheme+host base URL.
func ParseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server %q: missing host", server)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// Package monitor provides an HTTP client for the vision monitoring backend.
//
// # Overview
//
// This package defines the wire types shared by the rest of visionmon and the
// client that fetches the seed payload, timeline pages and per-camera
// analyses. Live updates arrive over the websocket stream instead; see the
// stream and envelope packages.
//
// # Architecture
//
// The package is split into two files:
//
//   - client.go: resty-based client, timeline routes and image URL helpers
//   - types.go: data structures mirroring the backend's JSON payloads
//
// # Client Usage
//
//	client, err := monitor.NewClient("127.0.0.1:8000")
//	if err != nil {
//		return err
//	}
//	initial, err := client.FetchInitialState(ctx)
//	page, err := client.FetchTimeline(ctx, monitor.TimelineQuery{Limit: 20})
//
// The timeline cursor depends on the Fetcher interface rather than *Client,
// so tests substitute an in-memory fetcher.
//
// # API Endpoints
//
//   - GET /initial_state/: facility state, camera states, cameras, messages
//   - GET /get_timeline_events_paginated: all cameras, or one via camera_id
//   - GET /get_timeline_events_by_date_paginated: all cameras in a date range
//   - GET /get_timeline_events_by_date: one camera in a date range
//   - GET /get_timeline_events/{cameraID}: events for a selected camera
//   - GET /get_latest_frame_analyses/: latest analysis per camera
//
// TimelineQuery.Endpoint picks among the four timeline routes from the
// camera filter and date range; Values encodes offset, limit, camera_id,
// start_time and end_time.
//
// Image routes are not fetched here. LatestImagePath, CompositeImagePath and
// FrameImagePath build relative paths and ResolveURL joins them to the base
// URL for display.
//
// # Request Handling
//
// All requests carry the caller's context, Accept: application/json and
// User-Agent: visionmon/0.1, and time out after 10 seconds.
//
// # Error Handling
//
// Every failure is returned as *FetchError carrying the operation, the route
// and, for 4xx/5xx responses, the status code. The wrapped error is the
// transport or decode failure:
//
//   - "timeline page: api /get_timeline_events_paginated returned status 500"
//   - "initial state: /initial_state/: execute request: dial tcp: connection refused"
//
// The client never retries; the timeline cursor and the poller decide when
// to ask again.
//
// # Type Notes
//
// Identifiers arrive as JSON strings or numbers and decode into ID.
// StateLabels keeps the camera_states object in document order, since the
// UI lists cameras in the order the backend sent them. Composite camera ids
// ("Lobby 1") split into name and index with ParseCompositeID.
//
// Timestamps parse as RFC 3339 or as "2006-01-02 15:04:05" in local time;
// anything else yields the zero time.
//
// # URL Construction
//
//   - "127.0.0.1:8000" → http://127.0.0.1:8000
//   - "https://monitor.local" → https://monitor.local
//
// Paths, queries and fragments on the server address are dropped.
package monitor

// Package app provides the orchestration layer for the visionmon client.
//
// # Overview
//
// This package wires together configuration, logging, the backend clients,
// the live state hub, the timeline cursor and the UI. It is the composition
// root where all dependencies are initialized and connected.
//
// # Startup
//
//  1. Load ~/.config/visionmon/config.toml (defaults when missing)
//  2. Open the zerolog logger: the log file for the TUI, the console when
//     headless
//  3. Build the HTTP client, the websocket stream client, the metrics
//     recorder, the timeline cursor and the hub (with the cursor as its
//     timeline sink)
//  4. Seed the hub from /initial_state/, or from the CBOR state cache when
//     the backend is unreachable
//  5. Run the stream reader, the metrics endpoint, the poller and the UI
//     (or the headless logger) in one errgroup
//
// # Data Flow
//
//	┌──────────────┐   raw frames   ┌──────────┐  snapshots  ┌──────────┐
//	│ stream.Client├───────────────>│ hub.Hub  ├────────────>│ ui.Model │
//	└──────────────┘                └────┬─────┘             └────┬─────┘
//	                                     │ timeline batches       │ select / page
//	                                     v                        v
//	                                ┌──────────────────┐  fetch  ┌────────────────┐
//	                                │ timeline.Cursor  ├────────>│ monitor.Client │
//	                                └──────────────────┘         └────────────────┘
//
// # Poller
//
// The poller runs at a fixed interval (default one minute). On each tick it
// refreshes the selectable camera list and checkpoints the live view to the
// state cache. A final checkpoint is written on shutdown.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Invalid configuration
//   - Log file cannot be opened
//   - Invalid server address
//
// Recoverable errors (logged, the client keeps running):
//   - Initial state fetch failures (cache fallback)
//   - Stream disconnects (reconnect with backoff)
//   - Timeline fetch failures (retried on the next scroll)
//   - Metrics listener failures
package app

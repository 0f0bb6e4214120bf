// Package ui provides the terminal user interface for visionmon.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds every piece of view state and
// is updated only from Update; data arrives as messages:
//
//   - updateMsg: a hub.Update published after each applied stream event
//   - cursorMsg: a timeline.State published after each cursor change
//   - tickMsg: periodic refresh of the stream connection status
//   - logLinesMsg: the tail of the client log file
//
// Run subscribes to the hub and the timeline cursor and forwards their
// notifications with p.Send from a fresh goroutine, so a slow frame never
// blocks the stream reader. Because those sends can be reordered, Update
// drops any snapshot whose Version (or cursor state whose Revision) is older
// than the one already shown.
//
// # Views
//
//   - Live: one card per camera (state label, alert badge, latest
//     narrative) above the newest-first message log
//   - Timeline: selectable camera list beside the paginated event history,
//     with an optional date range
//   - Logs: the client's own zerolog file, colored by level, with follow mode
//
// # Timeline Paging
//
// Timeline fetches never run inside Update. Selecting a camera, applying a
// date range and loading the next page are issued as commands that call the
// cursor; the resulting state comes back as a cursorMsg. The next page is
// requested when the events viewport is scrolled within
// timeline.ScrollThreshold lines of its end. The cursor itself suppresses
// overlapping page loads and discards responses for a superseded selection.
//
// # Preferences
//
// The theme and the last selected camera are saved to prefs.toml whenever
// they change and restored on the next start.
//
// # Key Bindings
//
//   - 1/2/3 or tab: switch view
//   - j/k, pgup/pgdn, g/G: scroll
//   - h/l, enter: move through and select cameras (timeline)
//   - x: back to all cameras (timeline)
//   - d: edit the date range (timeline)
//   - f: toggle log follow (logs)
//   - T: cycle theme
//   - ?: help
//   - q or ctrl+c: quit
package ui

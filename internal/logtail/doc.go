// Package logtail reads and formats the client's own log file for the
// in-app log view.
//
// # Reading Log Files
//
// Read returns the last maxLines of a file using a ring buffer:
//
//	1. Allocate ring buffer of size maxLines
//	2. For each line in file:
//	   - Store line at current index
//	   - Increment index (wrapping at maxLines)
//	3. Return the buffer starting at the oldest line
//
// Memory is O(maxLines), not O(file size). A non-positive maxLines reads the
// whole file. A missing file returns nil, nil: the log file is created on the
// first write and the view simply shows nothing until then.
//
// # Parsing
//
// The client logs zerolog JSON. Parse turns one line into an Entry
// (timestamp, level, component, message, error, remaining fields sorted by
// key). Non-JSON lines pass through as Raw. Format renders an entry as
//
//	12:00:01 ERR [timeline] timeline page fetch failed endpoint=/x offset=20 error="status 500"
//
// Coloring is left to the UI, which styles by Entry.Level.
package logtail

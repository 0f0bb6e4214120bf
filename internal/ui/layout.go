package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which camera cards stack in
	// a single column.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the width at which the live view shows three card
	// columns.
	LayoutWideWidth = 160

	// CameraCardWidth is the outer width of one camera card.
	CameraCardWidth = 48

	// CameraListWidth is the width of the timeline camera list.
	CameraListWidth = 28
)

// Log display limits.
const (
	// LogTailLines is how many lines of the client log are read per refresh.
	LogTailLines = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is the refresh interval for connection status and the
	// followed log.
	DefaultUIInterval = time.Second

	// FetchTimeout bounds one timeline or camera fetch started from the UI.
	FetchTimeout = 15 * time.Second
)

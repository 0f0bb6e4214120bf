// Package timeline maintains the pagination and filter state for the
// historical event view.
//
// # Cursor
//
// A Cursor tracks the page offset, the fixed page limit, a loading flag, the
// selected camera and an optional date range. The next request is derived
// from that state:
//
//	camera  date range  endpoint
//	no      no          /get_timeline_events_paginated
//	yes     no          /get_timeline_events_paginated (camera_id param)
//	no      yes         /get_timeline_events_by_date_paginated
//	yes     yes         /get_timeline_events_by_date
//
// The offset only advances by the number of events received in a successful
// page. SelectCamera, ClearCamera and SetDateRange reset it to zero.
//
// # Loading Guard
//
// LoadMore is suppressed (ErrBusy) while a page is in flight. Rapid scroll
// events therefore dispatch at most one request; callers do not need their
// own debouncing.
//
// # Generations
//
// Every selection change bumps State.Generation. A fetch captures the
// generation at dispatch and compares it on resolution; a mismatch means the
// user moved on, and the response is dropped with ErrStale. A page is also
// dropped when the offset it was requested for no longer matches.
//
// # Concurrency
//
// Fetches run without the cursor lock held. Blocking methods (SelectCamera,
// LoadMore, LoadCameras) must not be called from a render loop directly; the
// UI runs them inside commands. Listeners run on the calling goroutine after
// the lock is released.
package timeline

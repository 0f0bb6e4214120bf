// Package hub is the single writer of the live state.
//
// HandleMessage decodes one raw stream payload with the envelope package and
// Apply routes the result:
//
//   - StructuredEvent: facility label first, then the camera-state labels
//   - UnstructuredEvent: prepend to the message log, then upsert the camera
//   - AlertEvent: update the camera's alert status
//   - TimelineBatch: forwarded to the TimelineSink, no live-view change
//
// Every mutation is followed by one Update carrying the changed parts and a
// fresh state.Snapshot. Events are applied in delivery order under a single
// lock, and listeners run after the lock is released, on the applying
// goroutine. A listener that forwards updates to another goroutine must
// order them by Snapshot.Version.
//
// Decode failures and unknown alert types are logged and counted; they leave
// the state untouched and publish nothing.
package hub

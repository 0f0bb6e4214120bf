// Package stream reads the backend's live event websocket.
//
// Each text frame is passed verbatim to a Handler; decoding belongs to the
// envelope package and routing to the hub. Frames are delivered in order on
// the Run goroutine, so a handler that runs to completion before returning
// gives the single-writer semantics the state store expects.
//
// When the connection drops, Run waits base * 2^failures (capped at 30s)
// before redialing. The failure count resets once a connection delivers a
// frame. Status exposes connection state for the UI header.
package stream

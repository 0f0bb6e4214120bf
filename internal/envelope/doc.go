// Package envelope decodes raw stream payloads into typed events.
//
// The wire format double-encodes JSON: the transport frame carries a
// "message" field whose value is itself JSON text. Decoding is a bounded
// unwrap with one typed frame per level:
//
//	outer         {"message": "<text>"}
//	intermediate  {"type":"alert",...} | {"type":"timeline",...} | {"channel":..., "message": "<text>"}
//	payload       {"facility_state": ..., "camera_states": {...}}
//
// Text that is not JSON at any level is parsed as an unstructured narrative
// line ("<name> <index> <date> <time> <description...>"). Decode never
// panics and never returns a partially populated event; callers log the
// *DecodeError and drop the payload.
package envelope

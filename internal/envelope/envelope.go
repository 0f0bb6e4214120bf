package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/five82/visionmon/internal/monitor"
)

// Message types carried in the intermediate frame's "type" field.
const (
	TypeAlert    = "alert"
	TypeTimeline = "timeline"
)

// Decode failure reasons.
var (
	ErrEmptyPayload          = errors.New("empty payload")
	ErrMalformedUnstructured = errors.New("malformed unstructured message")
	ErrMalformedAlert        = errors.New("alert missing camera_id")
	ErrMalformedTimeline     = errors.New("malformed timeline batch")
	ErrUnrecognized          = errors.New("unrecognized envelope")
)

// DecodeError reports a payload that could not be turned into an event.
type DecodeError struct {
	Reason  error
	Payload string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", clip(e.Payload, 120), e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Reason }

// Event is one decoded stream message: StructuredEvent, UnstructuredEvent,
// AlertEvent or TimelineBatch.
type Event interface {
	event()
}

// StructuredEvent carries facility and camera-state labels. Empty
// FacilityState and nil CameraStates mean the field was absent.
type StructuredEvent struct {
	Channel       string
	FacilityState string
	CameraStates  monitor.StateLabels
}

// UnstructuredEvent is a free-text narrative line parsed into a message.
type UnstructuredEvent struct {
	Channel string
	Message monitor.LLMMessage
}

// AlertEvent reports an alert transition for one camera.
type AlertEvent struct {
	CameraID  string
	AlertType string
}

// TimelineBatch is a pushed batch of timeline events.
type TimelineBatch struct {
	Events []monitor.TimelineEvent
}

func (StructuredEvent) event()   {}
func (UnstructuredEvent) event() {}
func (AlertEvent) event()        {}
func (TimelineBatch) event()     {}

// outerFrame is the transport envelope: {"message": "<json text>"}.
type outerFrame struct {
	Message json.RawMessage `json:"message"`
}

// intermediateFrame is the first unwrapped level. It is either a typed
// alert/timeline message or another envelope around the structured payload.
type intermediateFrame struct {
	Type          string          `json:"type"`
	Channel       string          `json:"channel"`
	Message       json.RawMessage `json:"message"`
	CameraID      json.RawMessage `json:"camera_id"`
	AlertType     string          `json:"alert_type"`
	Events        json.RawMessage `json:"events"`
	FacilityState *string         `json:"facility_state"`
	CameraStates  json.RawMessage `json:"camera_states"`
}

// payloadFrame is the innermost structured payload.
type payloadFrame struct {
	FacilityState *string             `json:"facility_state"`
	CameraStates  monitor.StateLabels `json:"camera_states"`
}

// Decode unwraps one raw transport payload into an event. JSON failures at
// any level degrade to parsing the deepest text reached as an unstructured
// line; only text that also fails that parse is reported as a DecodeError.
func Decode(raw string) (Event, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &DecodeError{Reason: ErrEmptyPayload, Payload: raw}
	}

	var outer outerFrame
	if err := json.Unmarshal([]byte(raw), &outer); err != nil {
		return unstructured("", plainText(raw))
	}
	if isNull(outer.Message) {
		// Bare frame without the transport envelope.
		return decodeIntermediate(raw)
	}

	text, ok := unwrap(outer.Message)
	if !ok {
		return unstructured("", raw)
	}
	return decodeIntermediate(text)
}

func decodeIntermediate(text string) (Event, error) {
	var frame intermediateFrame
	if err := json.Unmarshal([]byte(text), &frame); err != nil {
		return unstructured("", plainText(text))
	}

	switch strings.ToLower(strings.TrimSpace(frame.Type)) {
	case TypeAlert:
		cameraID := rawText(frame.CameraID)
		if cameraID == "" {
			return nil, &DecodeError{Reason: ErrMalformedAlert, Payload: text}
		}
		return AlertEvent{CameraID: cameraID, AlertType: strings.TrimSpace(frame.AlertType)}, nil
	case TypeTimeline:
		var events []monitor.TimelineEvent
		if !isNull(frame.Events) {
			if err := json.Unmarshal(frame.Events, &events); err != nil {
				return nil, &DecodeError{Reason: fmt.Errorf("%w: %v", ErrMalformedTimeline, err), Payload: text}
			}
		}
		return TimelineBatch{Events: events}, nil
	}

	if !isNull(frame.Message) {
		inner, ok := unwrap(frame.Message)
		if !ok {
			return unstructured(frame.Channel, plainText(text))
		}
		return decodePayload(frame.Channel, inner)
	}

	if frame.FacilityState != nil || !isNull(frame.CameraStates) {
		return decodePayload(frame.Channel, text)
	}
	return nil, &DecodeError{Reason: ErrUnrecognized, Payload: text}
}

func decodePayload(channel, text string) (Event, error) {
	var payload payloadFrame
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return unstructured(channel, plainText(text))
	}
	ev := StructuredEvent{Channel: channel, CameraStates: payload.CameraStates}
	if payload.FacilityState != nil {
		ev.FacilityState = strings.TrimSpace(*payload.FacilityState)
	}
	return ev, nil
}

func unstructured(channel, text string) (Event, error) {
	msg, err := ParseUnstructured(text)
	if err != nil {
		return nil, err
	}
	return UnstructuredEvent{Channel: channel, Message: msg}, nil
}

// ParseUnstructured parses "<name> <index> <date> <time> <description...>".
// At least four whitespace-separated tokens are required.
func ParseUnstructured(text string) (monitor.LLMMessage, error) {
	parts := strings.Fields(text)
	if len(parts) < 4 {
		return monitor.LLMMessage{}, &DecodeError{Reason: ErrMalformedUnstructured, Payload: text}
	}
	return monitor.LLMMessage{
		CameraName:  parts[0],
		CameraIndex: parts[1],
		Timestamp:   strings.Join(parts[2:4], " "),
		Description: strings.Join(parts[4:], " "),
	}, nil
}

// unwrap returns the text of one envelope level. The field is normally a JSON
// string holding more JSON; an inline object is accepted as-is.
func unwrap(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", false
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case '{':
		return string(trimmed), true
	}
	return "", false
}

// plainText unquotes a JSON string literal and returns other text unchanged.
func plainText(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
	}
	return text
}

func rawText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var id monitor.ID
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}
	return strings.TrimSpace(string(id))
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// clip cuts s to at most limit bytes on a rune boundary.
func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}

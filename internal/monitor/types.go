package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const monitorTimestampLayout = "2006-01-02 15:04:05"

// CameraSnapshot is the latest narrative state reported for one camera.
type CameraSnapshot struct {
	CameraName  string `json:"cameraName"`
	CameraIndex string `json:"cameraIndex"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
}

// ParsedTime returns the timestamp as time.Time when possible.
func (c CameraSnapshot) ParsedTime() time.Time {
	return parseTime(c.Timestamp)
}

// LLMMessage is one entry of the narrative message log. It has the same shape
// as CameraSnapshot but is stored by arrival order rather than by camera.
type LLMMessage struct {
	CameraName  string `json:"cameraName"`
	CameraIndex string `json:"cameraIndex"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
}

// Snapshot returns the camera snapshot carried by the message.
func (m LLMMessage) Snapshot() CameraSnapshot {
	return CameraSnapshot(m)
}

// ParsedTime returns the timestamp as time.Time when possible.
func (m LLMMessage) ParsedTime() time.Time {
	return parseTime(m.Timestamp)
}

// ID is an identifier the backend emits as either a JSON string or number.
type ID string

// UnmarshalJSON accepts both quoted and bare numeric identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// TimelineEvent is one historical event row.
type TimelineEvent struct {
	DataID      ID     `json:"data_id"`
	Timestamp   string `json:"timestamp"`
	State       string `json:"state"`
	Description string `json:"description"`
}

// ParsedTime returns the timestamp as time.Time when possible.
func (e TimelineEvent) ParsedTime() time.Time {
	return parseTime(e.Timestamp)
}

// TimelinePage mirrors the paginated timeline endpoints.
type TimelinePage struct {
	Events []TimelineEvent `json:"events"`
}

// StateLabel is one camera-state label keyed by composite camera id.
type StateLabel struct {
	CompositeID string `json:"id"`
	Label       string `json:"label"`
}

// CameraName returns the first token of the composite id.
func (l StateLabel) CameraName() string {
	name, _ := ParseCompositeID(l.CompositeID)
	return name
}

// CameraIndex returns the last token of the composite id.
func (l StateLabel) CameraIndex() string {
	_, index := ParseCompositeID(l.CompositeID)
	return index
}

// StateLabels is the camera_states mapping with document order preserved.
type StateLabels []StateLabel

// UnmarshalJSON decodes a JSON object of composite id to label, keeping the
// key order of the document. Duplicate keys keep the last value in the
// position of the first occurrence.
func (s *StateLabels) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("camera_states must be an object")
	}
	out := StateLabels{}
	seen := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var label string
		if err := dec.Decode(&label); err != nil {
			return fmt.Errorf("camera_states[%q]: %w", key, err)
		}
		if idx, ok := seen[key]; ok {
			out[idx].Label = label
			continue
		}
		seen[key] = len(out)
		out = append(out, StateLabel{CompositeID: key, Label: label})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// MarshalJSON encodes the labels back into an object in stored order.
func (s StateLabels) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(l.CompositeID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(l.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Lookup returns the label stored for compositeID.
func (s StateLabels) Lookup(compositeID string) (string, bool) {
	for _, l := range s {
		if l.CompositeID == compositeID {
			return l.Label, true
		}
	}
	return "", false
}

// ParseCompositeID splits "<cameraName> ... <cameraIndex>" into its name
// (first token) and index (last token).
func ParseCompositeID(id string) (name, index string) {
	fields := strings.Fields(id)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], fields[len(fields)-1]
}

// InitialState is the seed payload delivered once at session start.
type InitialState struct {
	FacilityState string           `json:"facility_state,omitempty"`
	CameraStates  StateLabels      `json:"camera_states,omitempty"`
	CameraFeeds   []CameraSnapshot `json:"camera_feeds,omitempty"`
	LLMOutputs    []LLMMessage     `json:"llm_outputs,omitempty"`
}

// IsEmpty reports whether the payload carries nothing to seed.
func (s InitialState) IsEmpty() bool {
	return strings.TrimSpace(s.FacilityState) == "" &&
		len(s.CameraStates) == 0 &&
		len(s.CameraFeeds) == 0 &&
		len(s.LLMOutputs) == 0
}

// CameraSummary describes a selectable camera from the latest analyses.
type CameraSummary struct {
	ID        string
	Index     string
	Name      string
	ImagePath string
}

// latestAnalysesResponse mirrors /get_latest_frame_analyses/. Each row is a
// positional array: [id, index, ..., name].
type latestAnalysesResponse struct {
	LatestAnalyses [][]json.RawMessage `json:"latest_analyses"`
}

func (r latestAnalysesResponse) summaries() []CameraSummary {
	out := make([]CameraSummary, 0, len(r.LatestAnalyses))
	for _, row := range r.LatestAnalyses {
		if len(row) < 2 {
			continue
		}
		summary := CameraSummary{
			ID:    rawText(row[0]),
			Index: rawText(row[1]),
		}
		if len(row) > 4 {
			summary.Name = rawText(row[4])
		}
		if summary.Name == "" {
			summary.Name, _ = ParseCompositeID(summary.ID)
		}
		summary.ImagePath = LatestImagePath(summary.Index)
		out = append(out, summary)
	}
	return out
}

// TimelineQuery configures the paginated timeline requests.
type TimelineQuery struct {
	Offset    int
	Limit     int
	CameraID  string
	StartTime time.Time
	EndTime   time.Time
}

// HasCamera reports whether the query is filtered to one camera.
func (q TimelineQuery) HasCamera() bool {
	return strings.TrimSpace(q.CameraID) != ""
}

// HasDateRange reports whether both range bounds are set.
func (q TimelineQuery) HasDateRange() bool {
	return !q.StartTime.IsZero() && !q.EndTime.IsZero()
}

// Endpoint selects the route for the query's camera and date-range filters.
func (q TimelineQuery) Endpoint() string {
	switch {
	case q.HasCamera() && q.HasDateRange():
		return EndpointCameraTimelineByDate
	case q.HasCamera():
		return EndpointCameraTimeline
	case q.HasDateRange():
		return EndpointTimelineByDate
	default:
		return EndpointTimeline
	}
}

// Values encodes the query parameters.
func (q TimelineQuery) Values() url.Values {
	values := url.Values{}
	values.Set("offset", strconv.Itoa(max(q.Offset, 0)))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.HasCamera() {
		values.Set("camera_id", strings.TrimSpace(q.CameraID))
	}
	if q.HasDateRange() {
		values.Set("start_time", q.StartTime.Format(time.RFC3339))
		values.Set("end_time", q.EndTime.Format(time.RFC3339))
	}
	return values
}

func rawText(raw json.RawMessage) string {
	var id ID
	if err := json.Unmarshal(raw, &id); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return string(id)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(monitorTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

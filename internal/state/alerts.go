package state

import (
	"fmt"
	"strings"
)

// AlertStatus is the display status stored per camera.
type AlertStatus string

const (
	AlertNormal        AlertStatus = "Normal"
	AlertTriggered     AlertStatus = "Alert triggered"
	AlertResolved      AlertStatus = "Alert resolved"
	AlertFlapping      AlertStatus = "Alert flapping"
	AlertFlappingEnded AlertStatus = "Flapping ended"
)

// Alert types emitted by the backend's alert logic.
const (
	AlertTypeAlert         = "ALERT"
	AlertTypeResolved      = "RESOLVED"
	AlertTypeFlappingStart = "FLAPPING_START"
	AlertTypeFlappingEnd   = "FLAPPING_END"
)

var alertTransitions = map[string]AlertStatus{
	AlertTypeAlert:         AlertTriggered,
	AlertTypeResolved:      AlertResolved,
	AlertTypeFlappingStart: AlertFlapping,
	AlertTypeFlappingEnd:   AlertFlappingEnded,
}

// UnknownAlertTypeError reports an alert_type outside the transition table.
type UnknownAlertTypeError struct {
	CameraID  string
	AlertType string
}

func (e *UnknownAlertTypeError) Error() string {
	return fmt.Sprintf("unknown alert type %q for camera %s", e.AlertType, e.CameraID)
}

// AlertTracker keeps the latest alert status per camera id. Flapping is
// stored as its own status rather than folded into triggered/resolved.
type AlertTracker struct {
	statuses map[string]AlertStatus
}

// NewAlertTracker returns a tracker with every camera in AlertNormal.
func NewAlertTracker() *AlertTracker {
	return &AlertTracker{statuses: make(map[string]AlertStatus)}
}

// Apply records alertType for cameraID. Types are matched exactly after
// trimming surrounding whitespace. Unknown types leave the stored status
// untouched and return *UnknownAlertTypeError.
func (t *AlertTracker) Apply(cameraID, alertType string) (AlertStatus, error) {
	status, ok := alertTransitions[strings.TrimSpace(alertType)]
	if !ok {
		return t.Status(cameraID), &UnknownAlertTypeError{CameraID: cameraID, AlertType: alertType}
	}
	t.statuses[cameraID] = status
	return status, nil
}

// Status returns the latest status for cameraID, AlertNormal when none.
func (t *AlertTracker) Status(cameraID string) AlertStatus {
	if status, ok := t.statuses[cameraID]; ok {
		return status
	}
	return AlertNormal
}

// All returns a copy of the stored statuses.
func (t *AlertTracker) All() map[string]AlertStatus {
	if len(t.statuses) == 0 {
		return nil
	}
	dup := make(map[string]AlertStatus, len(t.statuses))
	for k, v := range t.statuses {
		dup[k] = v
	}
	return dup
}

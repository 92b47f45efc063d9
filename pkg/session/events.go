package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/awast-sec/awast-go/pkg/models"
)

// eventKind classifies the normalized events fed into the controller. Both
// the stream reader and the poll fallback emit these; the controller does
// not care which path delivered them.
type eventKind int

const (
	eventProgress eventKind = iota
	eventAlerts
	eventComplete
	eventError
)

// event is one normalized observation about a scan. Every event carries the
// scan id it was produced for so the controller can discard events from a
// torn-down session.
type event struct {
	scanID      string
	kind        eventKind
	progress    int
	totalAlerts int
	alerts      []models.Alert
	replace     bool // alerts are the full final set, not an increment
	message     string
	fromPoll    bool
}

// frame is the decoded form of one streamed message.
type frame struct {
	Type        string         `json:"type"`
	Progress    int            `json:"progress"`
	TotalAlerts int            `json:"total_alerts"`
	NewAlerts   []models.Alert `json:"new_alerts"`
	Alerts      []models.Alert `json:"alerts"`
	AlertsCount *int           `json:"alerts_count"`
	Message     string         `json:"message"`
}

// frameClass is the tagged-variant classification of an inbound frame.
type frameClass int

const (
	classHeartbeat frameClass = iota
	classProgress
	classDone
	classError
	classLegacyAlerts
	classUnknown
)

const (
	frameTypeProgress = "progress"
	frameTypeDone     = "done"
	frameTypeError    = "error"
)

// classifyFrame decodes one raw frame. Heartbeats are recognized before JSON
// decoding. A frame without a type discriminator but with an alerts list is
// the legacy full-snapshot shape older backends emit; any other unknown type
// is a no-op for the caller.
func classifyFrame(data []byte) (frameClass, *frame, error) {
	trimmed := bytes.TrimSpace(data)

	if isHeartbeat(trimmed) {
		return classHeartbeat, nil, nil
	}

	var f frame
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return classUnknown, nil, fmt.Errorf("%w: %v", errMalformedFrame, err)
	}

	switch f.Type {
	case frameTypeProgress:
		return classProgress, &f, nil
	case frameTypeDone:
		return classDone, &f, nil
	case frameTypeError:
		return classError, &f, nil
	case "":
		if f.Alerts != nil {
			return classLegacyAlerts, &f, nil
		}

		return classUnknown, &f, nil
	default:
		return classUnknown, &f, nil
	}
}

// isHeartbeat matches the liveness marker, bare or JSON-quoted.
func isHeartbeat(data []byte) bool {
	s := string(data)

	return s == "ping" || s == `"ping"`
}

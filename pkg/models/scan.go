package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

const completePercent = 100

// ScanStatus is the polled status of a running scan. The backend reports
// completion as a percentage string; "100" means the scan is finished.
type ScanStatus struct {
	Status   string `json:"status"`
	Progress string `json:"progress,omitempty"`
}

// Percent parses the status percentage. Unparseable values map to 0 so a
// garbled poll response never looks like completion.
func (s ScanStatus) Percent() int {
	v, err := strconv.Atoi(strings.TrimSpace(s.Status))
	if err != nil || v < 0 {
		return 0
	}

	if v > completePercent {
		return completePercent
	}

	return v
}

// Done reports whether the status signals full completion.
func (s ScanStatus) Done() bool {
	return s.Percent() >= completePercent
}

// ScanID is a backend-assigned scan identifier. The backend is inconsistent
// about the JSON type (string vs. number), so it is decoded tolerantly.
type ScanID string

func (id *ScanID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ScanID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	*id = ScanID(n.String())

	return nil
}

// StartScanResponse is the response to a start-spider or start-scan request.
// Historical backend versions named the id field differently per endpoint
// ("scan" for the spider, "scan_id" for the scan); both are accepted and
// "scan_id" wins when both are present.
type StartScanResponse struct {
	Scan   ScanID `json:"scan"`
	ScanID ScanID `json:"scan_id"`
}

// ID returns the scan identifier regardless of which field carried it.
func (r StartScanResponse) ID() string {
	if r.ScanID != "" {
		return string(r.ScanID)
	}

	return string(r.Scan)
}

// Package models pkg/models/alert.go contains the shared data types for the
// AWAST scanning API.
package models

import "encoding/json"

// RiskLevel is the severity assigned to a finding by the scanner.
type RiskLevel string

const (
	RiskHigh          RiskLevel = "High"
	RiskMedium        RiskLevel = "Medium"
	RiskLow           RiskLevel = "Low"
	RiskInformational RiskLevel = "Informational"
)

// Alert represents one finding reported by the scanner. Findings are
// immutable once observed; the client never edits them.
type Alert struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"alert"`
	Risk        RiskLevel         `json:"risk"`
	Confidence  string            `json:"confidence,omitempty"`
	URL         string            `json:"url"`
	Param       string            `json:"param,omitempty"`
	Evidence    string            `json:"evidence,omitempty"`
	Description string            `json:"description,omitempty"`
	Solution    string            `json:"solution,omitempty"`
	Reference   string            `json:"reference,omitempty"`
	Method      string            `json:"method,omitempty"`
	CWEID       string            `json:"cweid,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// AlertKey is the identity triple used to deduplicate findings. The backend
// may resend a known alert (e.g. after a reconnect); two alerts with the
// same key are the same finding.
type AlertKey struct {
	Name  string
	URL   string
	Param string
}

// Key returns the dedup key for the alert.
func (a *Alert) Key() AlertKey {
	return AlertKey{Name: a.Name, URL: a.URL, Param: a.Param}
}

// UnmarshalJSON accepts both alert shapes the backend emits: the full form
// uses "alert" for the finding name, the streamed incremental form uses
// "name".
func (a *Alert) UnmarshalJSON(data []byte) error {
	type alias Alert

	aux := &struct {
		LegacyName string `json:"name"`
		*alias
	}{
		alias: (*alias)(a),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if a.Name == "" {
		a.Name = aux.LegacyName
	}

	return nil
}

// AlertsSummary holds finding counts grouped by risk level.
type AlertsSummary struct {
	High          int `json:"High"`
	Medium        int `json:"Medium"`
	Low           int `json:"Low"`
	Informational int `json:"Informational"`
}

// Total returns the number of findings across all risk levels.
func (s AlertsSummary) Total() int {
	return s.High + s.Medium + s.Low + s.Informational
}

// Add increments the counter for the given risk level. Unknown levels are
// counted as informational.
func (s *AlertsSummary) Add(risk RiskLevel) {
	switch risk {
	case RiskHigh:
		s.High++
	case RiskMedium:
		s.Medium++
	case RiskLow:
		s.Low++
	case RiskInformational:
		s.Informational++
	default:
		s.Informational++
	}
}

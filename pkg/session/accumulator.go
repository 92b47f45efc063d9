package session

import "github.com/awast-sec/awast-go/pkg/models"

// Accumulator maintains the deduplicated, ordered set of findings for the
// active session. Identity is the (name, url, param) triple; the backend may
// resend a known finding on reconnect and duplicates are dropped, not
// appended. Not safe for concurrent use; the controller serializes access.
type Accumulator struct {
	seen  map[models.AlertKey]struct{}
	order []models.Alert
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		seen:  make(map[models.AlertKey]struct{}),
		order: make([]models.Alert, 0),
	}
}

// IngestAppend adds the alerts whose dedup key is not already present,
// preserving arrival order for new entries. It returns the number of alerts
// actually added.
func (a *Accumulator) IngestAppend(alerts []models.Alert) int {
	added := 0

	for _, alert := range alerts {
		key := alert.Key()
		if _, ok := a.seen[key]; ok {
			continue
		}

		a.seen[key] = struct{}{}
		a.order = append(a.order, alert)
		added++
	}

	return added
}

// IngestReplace swaps the entire collection for the given list. The final
// payload may repeat a finding, so it goes through the same dedup path.
func (a *Accumulator) IngestReplace(alerts []models.Alert) {
	a.Reset()
	a.IngestAppend(alerts)
}

// Reset clears all state. Called only when a new session starts.
func (a *Accumulator) Reset() {
	a.seen = make(map[models.AlertKey]struct{})
	a.order = a.order[:0]
}

// Alerts returns a copy of the findings in insertion order.
func (a *Accumulator) Alerts() []models.Alert {
	out := make([]models.Alert, len(a.order))
	copy(out, a.order)

	return out
}

// Len returns the number of unique findings.
func (a *Accumulator) Len() int {
	return len(a.order)
}

// SummaryByRisk recomputes finding counts by risk level from the current
// set. It is never tracked independently, so it cannot drift from the list.
func (a *Accumulator) SummaryByRisk() models.AlertsSummary {
	var summary models.AlertsSummary

	for i := range a.order {
		summary.Add(a.order[i].Risk)
	}

	return summary
}

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awast-sec/awast-go/pkg/models"
	"github.com/awast-sec/awast-go/pkg/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func completedSession(id, target string, finished time.Time) session.ScanSession {
	return session.ScanSession{
		ID:               id,
		TargetURL:        target,
		Kind:             session.KindScan,
		Phase:            session.PhaseComplete,
		ProgressPercent:  100,
		TotalAlertsFound: 2,
		StartedAt:        finished.Add(-2 * time.Minute),
		FinishedAt:       finished,
		Alerts: []models.Alert{
			{
				Name:     "Cross Site Scripting (Reflected)",
				Risk:     models.RiskHigh,
				URL:      target + "/search",
				Param:    "q",
				Evidence: "<script>alert(1)</script>",
				Solution: "Encode output",
				CWEID:    "79",
			},
			{
				Name: "X-Content-Type-Options Header Missing",
				Risk: models.RiskLow,
				URL:  target,
			},
		},
	}
}

func TestRecordSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := completedSession("42", "http://example.com", time.Now())
	require.NoError(t, store.RecordSession(ctx, sess))

	records, err := store.RecentScans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.NotEmpty(t, rec.RecordID)
	assert.Equal(t, "42", rec.ScanID)
	assert.Equal(t, "http://example.com", rec.Target)
	assert.Equal(t, string(session.KindScan), rec.Kind)
	assert.Equal(t, string(session.PhaseComplete), rec.Phase)
	assert.Equal(t, 100, rec.Progress)
	assert.Equal(t, 2, rec.TotalAlerts)
	assert.Empty(t, rec.ErrorMessage)

	alerts, err := store.AlertsForScan(ctx, rec.RecordID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Cross Site Scripting (Reflected)", alerts[0].Name)
	assert.Equal(t, models.RiskHigh, alerts[0].Risk)
	assert.Equal(t, "q", alerts[0].Param)
	assert.Equal(t, "79", alerts[0].CWEID)
	assert.Equal(t, models.RiskLow, alerts[1].Risk)
}

func TestRecordFailedSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := session.ScanSession{
		ID:               "43",
		TargetURL:        "http://unreachable.example.com",
		Kind:             session.KindScan,
		Phase:            session.PhaseFailed,
		ProgressPercent:  40,
		LastErrorMessage: "target unreachable",
		StartedAt:        time.Now().Add(-time.Minute),
		FinishedAt:       time.Now(),
	}

	require.NoError(t, store.RecordSession(ctx, sess))

	records, err := store.RecentScans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, string(session.PhaseFailed), records[0].Phase)
	assert.Equal(t, "target unreachable", records[0].ErrorMessage)

	alerts, err := store.AlertsForScan(ctx, records[0].RecordID)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestRecentScansOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"1", "2", "3"} {
		sess := completedSession(id, "http://example.com", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.RecordSession(ctx, sess))
	}

	records, err := store.RecentScans(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "3", records[0].ScanID)
	assert.Equal(t, "2", records[1].ScanID)
}

func TestAlertsForUnknownRecord(t *testing.T) {
	store := newTestStore(t)

	alerts, err := store.AlertsForScan(context.Background(), "no-such-record")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

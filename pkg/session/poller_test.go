package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/awast-sec/awast-go/pkg/models"
	"github.com/awast-sec/awast-go/pkg/zap"
)

func newPollFixture(t *testing.T) (*MockScanAPI, *pollFallback, chan event, func()) {
	t.Helper()

	ctrl := gomock.NewController(t)
	api := NewMockScanAPI(ctrl)

	events := make(chan event, 16)
	done := make(chan struct{})

	p := &pollFallback{
		api:      api,
		interval: 10 * time.Millisecond,
		events:   events,
		done:     done,
	}

	return api, p, events, func() { close(done) }
}

func TestPollOnceProgress(t *testing.T) {
	api, p, events, done := newPollFixture(t)
	defer done()

	api.EXPECT().
		ScanStatus(gomock.Any(), "42").
		Return(models.ScanStatus{Status: "30"}, nil)

	terminal := p.pollOnce(context.Background(), "42", "http://example.com", false)
	assert.False(t, terminal)

	ev := <-events
	assert.Equal(t, eventProgress, ev.kind)
	assert.Equal(t, 30, ev.progress)
	assert.Equal(t, "42", ev.scanID)
	assert.True(t, ev.fromPoll)
}

func TestPollOnceComplete(t *testing.T) {
	api, p, events, done := newPollFixture(t)
	defer done()

	alerts := []models.Alert{
		{Name: "XSS", Risk: models.RiskMedium, URL: "http://example.com/s"},
	}

	api.EXPECT().
		ScanStatus(gomock.Any(), "42").
		Return(models.ScanStatus{Status: "100"}, nil)
	api.EXPECT().
		Alerts(gomock.Any(), "http://example.com").
		Return(alerts, nil)

	terminal := p.pollOnce(context.Background(), "42", "http://example.com", false)
	assert.True(t, terminal)

	ev := <-events
	assert.Equal(t, eventComplete, ev.kind)
	assert.Equal(t, 100, ev.progress)
	assert.True(t, ev.replace)
	require.Len(t, ev.alerts, 1)
}

func TestPollOnceCompleteAlertFetchFails(t *testing.T) {
	api, p, events, done := newPollFixture(t)
	defer done()

	api.EXPECT().
		ScanStatus(gomock.Any(), "42").
		Return(models.ScanStatus{Status: "100"}, nil)
	api.EXPECT().
		Alerts(gomock.Any(), "http://example.com").
		Return(nil, zap.ErrTransport)

	terminal := p.pollOnce(context.Background(), "42", "http://example.com", false)
	assert.True(t, terminal, "completion still lands without the final list")

	ev := <-events
	assert.Equal(t, eventComplete, ev.kind)
	assert.False(t, ev.replace)
}

func TestPollOnceSpiderUsesSpiderStatus(t *testing.T) {
	api, p, events, done := newPollFixture(t)
	defer done()

	api.EXPECT().
		SpiderStatus(gomock.Any(), "7").
		Return(models.ScanStatus{Status: "100"}, nil)

	terminal := p.pollOnce(context.Background(), "7", "http://example.com", true)
	assert.True(t, terminal)

	ev := <-events
	assert.Equal(t, eventComplete, ev.kind)
	assert.Empty(t, ev.alerts, "spider completion fetches no alerts")
}

func TestPollOnceTransientErrorSwallowed(t *testing.T) {
	api, p, events, done := newPollFixture(t)
	defer done()

	api.EXPECT().
		ScanStatus(gomock.Any(), "42").
		Return(models.ScanStatus{}, zap.ErrTransport)

	terminal := p.pollOnce(context.Background(), "42", "http://example.com", false)
	assert.False(t, terminal, "transient poll failures retry on the next tick")
	assert.Empty(t, events)
}

func TestPollOnceUnauthorizedFailsSession(t *testing.T) {
	api, p, events, done := newPollFixture(t)
	defer done()

	api.EXPECT().
		ScanStatus(gomock.Any(), "42").
		Return(models.ScanStatus{}, zap.ErrUnauthorized)

	terminal := p.pollOnce(context.Background(), "42", "http://example.com", false)
	assert.True(t, terminal)

	ev := <-events
	assert.Equal(t, eventError, ev.kind)
}

func TestPollRunStopsAtTerminal(t *testing.T) {
	api, p, events, done := newPollFixture(t)
	defer done()

	gomock.InOrder(
		api.EXPECT().
			ScanStatus(gomock.Any(), "42").
			Return(models.ScanStatus{Status: "50"}, nil),
		api.EXPECT().
			ScanStatus(gomock.Any(), "42").
			Return(models.ScanStatus{Status: "100"}, nil),
		api.EXPECT().
			Alerts(gomock.Any(), "http://example.com").
			Return(nil, nil),
	)

	finished := make(chan struct{})

	go func() {
		defer close(finished)
		p.run(context.Background(), "42", "http://example.com", false)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop did not stop after terminal status")
	}

	// progress then complete
	ev := <-events
	assert.Equal(t, eventProgress, ev.kind)
	ev = <-events
	assert.Equal(t, eventComplete, ev.kind)
}

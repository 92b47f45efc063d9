package zap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awast-sec/awast-go/pkg/config"
	"github.com/awast-sec/awast-go/pkg/models"
	"github.com/awast-sec/awast-go/testenv/awastapi"
)

const testToken = "secret-token"

func newTestClient(t *testing.T, script awastapi.Script) (*Client, *awastapi.Server, func()) {
	t.Helper()

	backend := awastapi.New(testToken, script)
	ts := httptest.NewServer(backend.Handler())

	cfg := &config.ClientConfig{APIURL: ts.URL}
	require.NoError(t, cfg.Validate())

	client, err := NewClient(cfg, StaticToken(testToken), nil)
	require.NoError(t, err)

	return client, backend, ts.Close
}

func TestStartScan(t *testing.T) {
	client, backend, done := newTestClient(t, awastapi.Script{ScanID: "42"})
	defer done()

	id, err := client.StartScan(context.Background(), "http://example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, []string{"http://example.com"}, backend.Started())
}

func TestStartSpiderLegacyIDField(t *testing.T) {
	client, _, done := newTestClient(t, awastapi.Script{ScanID: "7"})
	defer done()

	// The spider endpoint names the id field "scan" instead of "scan_id".
	id, err := client.StartSpider(context.Background(), "http://example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "7", id)
}

func TestStartScanBadTarget(t *testing.T) {
	client, _, done := newTestClient(t, awastapi.Script{ScanID: "42", RejectTarget: true})
	defer done()

	_, err := client.StartScan(context.Background(), "not-a-url", nil)
	require.ErrorIs(t, err, ErrBadTarget)
	assert.Contains(t, err.Error(), "target not allowed")
}

func TestUnauthorized(t *testing.T) {
	backend := awastapi.New(testToken, awastapi.Script{ScanID: "42"})
	ts := httptest.NewServer(backend.Handler())
	defer ts.Close()

	cfg := &config.ClientConfig{APIURL: ts.URL}
	require.NoError(t, cfg.Validate())

	var loggedOut bool

	client, err := NewClient(cfg, StaticToken("wrong-token"), func() { loggedOut = true })
	require.NoError(t, err)

	_, err = client.StartScan(context.Background(), "http://example.com", nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, loggedOut, "on-unauthorized callback must fire")
}

func TestScanStatus(t *testing.T) {
	client, _, done := newTestClient(t, awastapi.Script{
		ScanID:   "42",
		Statuses: []string{"30", "100"},
	})
	defer done()

	status, err := client.ScanStatus(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 30, status.Percent())
	assert.False(t, status.Done())

	status, err = client.ScanStatus(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, status.Done())
}

func TestAlerts(t *testing.T) {
	script := awastapi.Script{
		ScanID: "42",
		Alerts: []models.Alert{
			{Name: "SQL Injection", Risk: models.RiskHigh, URL: "http://example.com/q", Param: "id"},
			{Name: "XSS", Risk: models.RiskMedium, URL: "http://example.com/s", Param: "q"},
		},
	}

	client, _, done := newTestClient(t, script)
	defer done()

	alerts, err := client.Alerts(context.Background(), "http://example.com")
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "SQL Injection", alerts[0].Name)
}

func TestAlertsBareArray(t *testing.T) {
	// Some backend versions return a bare array instead of the wrapped form.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"alert":"XSS","risk":"Medium","url":"http://x"}]`))
	}))
	defer ts.Close()

	cfg := &config.ClientConfig{APIURL: ts.URL}
	require.NoError(t, cfg.Validate())

	client, err := NewClient(cfg, StaticToken(testToken), nil)
	require.NoError(t, err)

	alerts, err := client.Alerts(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "XSS", alerts[0].Name)
}

func TestAlertsSummary(t *testing.T) {
	script := awastapi.Script{
		ScanID: "42",
		Alerts: []models.Alert{
			{Name: "A", Risk: models.RiskHigh, URL: "http://x/1"},
			{Name: "B", Risk: models.RiskHigh, URL: "http://x/2"},
			{Name: "C", Risk: models.RiskLow, URL: "http://x/3"},
		},
	}

	client, _, done := newTestClient(t, script)
	defer done()

	summary, err := client.AlertsSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.High)
	assert.Equal(t, 1, summary.Low)
	assert.Equal(t, 3, summary.Total())
}

func TestAlertByID(t *testing.T) {
	script := awastapi.Script{
		ScanID: "42",
		Alerts: []models.Alert{
			{ID: "5", Name: "SQL Injection", Risk: models.RiskHigh, URL: "http://x/q"},
		},
	}

	client, _, done := newTestClient(t, script)
	defer done()

	alert, err := client.Alert(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "SQL Injection", alert.Name)

	_, err = client.Alert(context.Background(), "404")
	assert.Error(t, err)
}

func TestAbortScan(t *testing.T) {
	client, backend, done := newTestClient(t, awastapi.Script{ScanID: "42"})
	defer done()

	require.NoError(t, client.AbortScan(context.Background(), "42"))
	assert.Equal(t, []string{"42"}, backend.Aborted())
}

func TestTransportError(t *testing.T) {
	cfg := &config.ClientConfig{APIURL: "http://127.0.0.1:1"}
	require.NoError(t, cfg.Validate())

	client, err := NewClient(cfg, StaticToken(testToken), nil)
	require.NoError(t, err)

	_, err = client.StartScan(context.Background(), "http://example.com", nil)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestDialScan(t *testing.T) {
	script := awastapi.Script{
		ScanID: "42",
		Frames: []string{`{"type":"progress","progress":10,"total_alerts":0}`},
	}

	client, _, done := newTestClient(t, script)
	defer done()

	conn, err := client.DialScan(context.Background(), "42")
	require.NoError(t, err)

	defer func() {
		_ = conn.Close()
	}()

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"progress"`)
}

func TestDialScanUnauthorized(t *testing.T) {
	backend := awastapi.New(testToken, awastapi.Script{ScanID: "42"})
	ts := httptest.NewServer(backend.Handler())
	defer ts.Close()

	cfg := &config.ClientConfig{APIURL: ts.URL}
	require.NoError(t, cfg.Validate())

	client, err := NewClient(cfg, StaticToken("wrong-token"), nil)
	require.NoError(t, err)

	_, err = client.DialScan(context.Background(), "42")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

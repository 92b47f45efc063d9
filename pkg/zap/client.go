// Package zap pkg/zap/client.go implements the authenticated HTTP client for
// the AWAST scanning backend and the dialer for its scan event stream.
package zap

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/awast-sec/awast-go/pkg/config"
	"github.com/awast-sec/awast-go/pkg/models"
)

const (
	defaultTimeout   = 60 * time.Second
	handshakeTimeout = 10 * time.Second
)

// Client talks to the AWAST backend. Every request carries the bearer
// credential from the injected TokenSource; a 401 response fails the call
// with ErrUnauthorized and fires the onUnauthorized callback, it is never
// retried here.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	dialer         *websocket.Dialer
	tokens         TokenSource
	onUnauthorized func()
}

// requestBody is the payload for the start-spider and start-scan endpoints.
type requestBody struct {
	Target  string            `json:"target"`
	Cookies map[string]string `json:"cookies,omitempty"`
}

// apiError is a non-2xx response that is neither a 401 nor a network
// failure.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.status, e.message)
}

// NewClient creates a client for the backend at cfg.APIURL. onUnauthorized
// may be nil; when set it is invoked once per rejected request so the
// session layer can log the user out without a circular dependency on this
// package.
func NewClient(cfg *config.ClientConfig, tokens TokenSource, onUnauthorized func()) (*Client, error) {
	base, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api_url '%s': %w", cfg.APIURL, err)
	}

	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // explicit opt-in
		}
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	if cfg.InsecureSkipVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
		dialer:         dialer,
		tokens:         tokens,
		onUnauthorized: onUnauthorized,
	}, nil
}

// StartSpider requests a reconnaissance-only crawl of the target and returns
// the backend-assigned scan id.
func (c *Client) StartSpider(ctx context.Context, target string, cookies map[string]string) (string, error) {
	return c.start(ctx, "/zap/spider", target, cookies)
}

// StartScan requests a full vulnerability scan of the target and returns the
// backend-assigned scan id.
func (c *Client) StartScan(ctx context.Context, target string, cookies map[string]string) (string, error) {
	return c.start(ctx, "/zap/scan", target, cookies)
}

func (c *Client) start(ctx context.Context, path, target string, cookies map[string]string) (string, error) {
	var resp models.StartScanResponse

	err := c.do(ctx, http.MethodPost, path, nil, &requestBody{Target: target, Cookies: cookies}, &resp)
	if err != nil {
		var ae *apiError
		if errors.As(err, &ae) && ae.status == http.StatusBadRequest {
			return "", fmt.Errorf("%w: %s", ErrBadTarget, ae.message)
		}

		return "", err
	}

	id := resp.ID()
	if id == "" {
		return "", errMissingScanID
	}

	return id, nil
}

// SpiderStatus polls the status of a spider crawl.
func (c *Client) SpiderStatus(ctx context.Context, scanID string) (models.ScanStatus, error) {
	var status models.ScanStatus

	err := c.do(ctx, http.MethodGet, "/zap/spider_status/"+scanID, nil, nil, &status)

	return status, err
}

// ScanStatus polls the status of a full scan.
func (c *Client) ScanStatus(ctx context.Context, scanID string) (models.ScanStatus, error) {
	var status models.ScanStatus

	err := c.do(ctx, http.MethodGet, "/zap/scan_status/"+scanID, nil, nil, &status)

	return status, err
}

// Alerts fetches the current findings, optionally filtered by base URL.
// The backend wraps the list in an object on some versions and returns a
// bare array on others; both are accepted.
func (c *Client) Alerts(ctx context.Context, baseURL string) ([]models.Alert, error) {
	var query url.Values
	if baseURL != "" {
		query = url.Values{"baseurl": []string{baseURL}}
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/zap/alerts", query, nil, &raw); err != nil {
		return nil, err
	}

	return decodeAlertList(raw)
}

// AlertsSummary fetches finding counts grouped by risk level.
func (c *Client) AlertsSummary(ctx context.Context) (models.AlertsSummary, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/zap/alerts/summary", nil, nil, &raw); err != nil {
		return models.AlertsSummary{}, err
	}

	wrapped := struct {
		Summary *models.AlertsSummary `json:"alertsSummary"`
	}{}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Summary != nil {
		return *wrapped.Summary, nil
	}

	var summary models.AlertsSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return models.AlertsSummary{}, fmt.Errorf("failed to decode alerts summary: %w", err)
	}

	return summary, nil
}

// Alert fetches one finding by its backend id.
func (c *Client) Alert(ctx context.Context, alertID string) (models.Alert, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/zap/alerts/"+alertID, nil, nil, &raw); err != nil {
		return models.Alert{}, err
	}

	wrapped := struct {
		Alert *models.Alert `json:"alert"`
	}{}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Alert != nil {
		return *wrapped.Alert, nil
	}

	var alert models.Alert
	if err := json.Unmarshal(raw, &alert); err != nil {
		return models.Alert{}, fmt.Errorf("failed to decode alert: %w", err)
	}

	return alert, nil
}

// AbortScan asks the backend to stop a scan. Cancellation is best effort;
// the session still has to observe a terminal status before it leaves the
// running phase.
func (c *Client) AbortScan(ctx context.Context, scanID string) error {
	return c.do(ctx, http.MethodGet, "/zap/abort/scan/"+scanID, nil, nil, nil)
}

// DialScan opens the streaming channel for the given scan. The bearer
// credential is attached to the handshake request.
func (c *Client) DialScan(ctx context.Context, scanID string) (*websocket.Conn, error) {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	wsURL := u.JoinPath("scan", "ws", "scan", scanID)

	header := http.Header{}
	if tok := c.tokens.Token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			if c.onUnauthorized != nil {
				c.onUnauthorized()
			}

			return nil, ErrUnauthorized
		}

		return nil, fmt.Errorf("%w: websocket dial: %v", ErrTransport, err)
	}

	return conn, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			return
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}

		return ErrUnauthorized
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &apiError{status: resp.StatusCode, message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// readErrorMessage extracts a human-readable message from an error response
// body. The backend uses "detail", the scanner behind it uses "message".
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}

	var msg struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(data, &msg); err == nil {
		if msg.Detail != "" {
			return msg.Detail
		}

		if msg.Message != "" {
			return msg.Message
		}
	}

	return string(bytes.TrimSpace(data))
}

// decodeAlertList accepts either {"alerts": [...], "count": n} or a bare
// alert array.
func decodeAlertList(raw json.RawMessage) ([]models.Alert, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var alerts []models.Alert
		if err := json.Unmarshal(trimmed, &alerts); err != nil {
			return nil, fmt.Errorf("failed to decode alerts: %w", err)
		}

		return alerts, nil
	}

	wrapped := struct {
		Alerts []models.Alert `json:"alerts"`
	}{}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}

	return wrapped.Alerts, nil
}

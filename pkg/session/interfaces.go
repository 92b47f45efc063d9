package session

import (
	"context"
	"time"

	"github.com/awast-sec/awast-go/pkg/models"
)

//go:generate mockgen -destination=mock_session.go -package=session github.com/awast-sec/awast-go/pkg/session ScanAPI,Dialer,StreamConn,Recorder

// ScanAPI is the subset of the backend API the session controller needs.
// *zap.Client satisfies it.
type ScanAPI interface {
	// StartSpider requests a reconnaissance-only crawl.
	StartSpider(ctx context.Context, target string, cookies map[string]string) (string, error)
	// StartScan requests a full vulnerability scan.
	StartScan(ctx context.Context, target string, cookies map[string]string) (string, error)
	// SpiderStatus polls a spider crawl.
	SpiderStatus(ctx context.Context, scanID string) (models.ScanStatus, error)
	// ScanStatus polls a full scan.
	ScanStatus(ctx context.Context, scanID string) (models.ScanStatus, error)
	// Alerts fetches current findings, optionally filtered by base URL.
	Alerts(ctx context.Context, baseURL string) ([]models.Alert, error)
	// AbortScan requests a best-effort cancellation.
	AbortScan(ctx context.Context, scanID string) error
}

// StreamConn is the slice of *websocket.Conn the stream reader uses.
type StreamConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens the streaming channel for a scan.
type Dialer interface {
	DialScan(ctx context.Context, scanID string) (StreamConn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, scanID string) (StreamConn, error)

// DialScan calls f.
func (f DialerFunc) DialScan(ctx context.Context, scanID string) (StreamConn, error) {
	return f(ctx, scanID)
}

// Recorder persists a session once it reaches a terminal phase.
type Recorder interface {
	RecordSession(ctx context.Context, sess ScanSession) error
}

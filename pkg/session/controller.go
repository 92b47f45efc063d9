// Package session pkg/session/controller.go implements the scan session
// state machine. One controller owns one session slot: the active scan's
// identity, phase, progress, accumulated findings, and the single live
// streaming channel. Events from the stream reader and the poll fallback
// funnel through one ordered channel, so state transitions never race even
// though their triggering I/O is concurrent.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/awast-sec/awast-go/pkg/config"
	"github.com/awast-sec/awast-go/pkg/models"
)

// Phase is the lifecycle state of a scan session.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseStarting Phase = "starting"
	PhaseRunning  Phase = "running"
	PhaseComplete Phase = "complete"
	PhaseFailed   Phase = "failed"
)

// Terminal reports whether no further transitions are possible for the
// session id.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// Kind distinguishes reconnaissance-only crawls from full scans.
type Kind string

const (
	KindSpider Kind = "spider"
	KindScan   Kind = "scan"
)

const eventBuffer = 64

// ScanSession is a read-only snapshot of the session slot. Observers only
// ever see copies; nothing outside the controller mutates session state.
type ScanSession struct {
	ID               string
	TargetURL        string
	Kind             Kind
	Phase            Phase
	ProgressPercent  int
	TotalAlertsFound int
	LastErrorMessage string
	StartedAt        time.Time
	FinishedAt       time.Time
	Alerts           []models.Alert
	SummaryByRisk    models.AlertsSummary
}

// Controller drives the scan session lifecycle: it issues start/abort
// commands, supervises the streaming channel and the poll fallback for the
// active session, merges their observations, and exposes a consistent view
// to any number of observers.
type Controller struct {
	api    ScanAPI
	dialer Dialer
	cfg    *config.ClientConfig

	recorder   Recorder
	onComplete func(ScanSession)

	mu            sync.RWMutex
	id            string
	target        string
	kind          Kind
	phase         Phase
	progress      int
	total         int
	lastErr       string
	startedAt     time.Time
	finishedAt    time.Time
	acc           *Accumulator
	completeFired bool

	conn          StreamConn
	streamID      string // scan id owning the running stream supervisor
	sessionCtx    context.Context
	sessionCancel context.CancelFunc

	observers map[int]chan ScanSession
	nextObs   int

	events chan event
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewController creates a controller and starts its event loop. Call Stop
// to release it.
func NewController(api ScanAPI, dialer Dialer, cfg *config.ClientConfig) *Controller {
	c := &Controller{
		api:       api,
		dialer:    dialer,
		cfg:       cfg,
		phase:     PhaseIdle,
		acc:       NewAccumulator(),
		observers: make(map[int]chan ScanSession),
		events:    make(chan event, eventBuffer),
		done:      make(chan struct{}),
	}

	c.wg.Add(1)
	go c.loop()

	return c
}

// SetRecorder installs a store that persists sessions on terminal
// transition. Must be called before the first start.
func (c *Controller) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recorder = r
}

// SetOnComplete installs a callback fired exactly once per session when it
// completes. Must be called before the first start.
func (c *Controller) SetOnComplete(fn func(ScanSession)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onComplete = fn
}

// StartScan starts a full scan of the target and adopts it as the active
// session. Any prior session's channel is torn down and its accumulated
// findings discarded before the new identifier takes effect. A failed start
// leaves the session in its prior phase.
func (c *Controller) StartScan(ctx context.Context, target string, cookies map[string]string) (string, error) {
	return c.startSession(ctx, KindScan, target, cookies)
}

// StartSpider starts a reconnaissance-only crawl. Spider sessions have no
// streaming channel; progress comes from polling alone.
func (c *Controller) StartSpider(ctx context.Context, target string, cookies map[string]string) (string, error) {
	return c.startSession(ctx, KindSpider, target, cookies)
}

func (c *Controller) startSession(ctx context.Context, kind Kind, target string, cookies map[string]string) (string, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return "", ErrControllerClosed
	}

	var (
		id  string
		err error
	)

	if kind == KindSpider {
		id, err = c.api.StartSpider(ctx, target, cookies)
	} else {
		id, err = c.api.StartScan(ctx, target, cookies)
	}

	if err != nil {
		return "", err
	}

	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return "", ErrControllerClosed
	}

	c.teardownLocked()

	c.id = id
	c.target = target
	c.kind = kind
	c.phase = PhaseStarting
	c.progress = 0
	c.total = 0
	c.lastErr = ""
	c.completeFired = false
	c.startedAt = time.Now()
	c.finishedAt = time.Time{}
	c.acc.Reset()

	sctx, cancel := context.WithCancel(context.Background())
	c.sessionCtx = sctx
	c.sessionCancel = cancel

	pf := &pollFallback{
		api:      c.api,
		interval: time.Duration(c.cfg.PollInterval),
		events:   c.events,
		done:     c.done,
	}

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		pf.run(sctx, id, target, kind == KindSpider)
	}()

	// The channel is opened lazily: no observers means no stream, polling
	// alone carries the session to a terminal phase.
	if kind == KindScan && len(c.observers) > 0 {
		c.startStreamLocked()
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()

	log.Printf("scan %s: session started (%s %s)", id, kind, target)
	c.notify(snap)

	return id, nil
}

// Abort requests a best-effort cancellation of the active session. The
// session stays in its current phase until a terminal event or poll
// observation arrives; abort is not guaranteed instantaneous on the backend.
func (c *Controller) Abort(ctx context.Context) error {
	c.mu.RLock()
	id := c.id
	terminal := c.phase.Terminal()
	c.mu.RUnlock()

	if id == "" || terminal {
		return ErrNoActiveSession
	}

	return c.api.AbortScan(ctx, id)
}

// Snapshot returns a race-free copy of the current session state.
func (c *Controller) Snapshot() ScanSession {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshotLocked()
}

// Subscribe registers an observer. The returned channel is primed with the
// current state and then receives a snapshot after every mutation; slow
// observers only ever lose intermediate states, never the latest. The
// cancel function detaches the observer; when the last observer detaches
// the streaming channel is closed to avoid idle leakage, and a later
// Subscribe redials it.
func (c *Controller) Subscribe() (<-chan ScanSession, func()) {
	c.mu.Lock()

	obsID := c.nextObs
	c.nextObs++
	ch := make(chan ScanSession, 1)
	c.observers[obsID] = ch

	// Lazy re-open for an active scan that lost its channel.
	if c.kind == KindScan && c.id != "" && !c.phase.Terminal() {
		c.startStreamLocked()
	}

	ch <- c.snapshotLocked()
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if _, ok := c.observers[obsID]; !ok {
			return
		}

		delete(c.observers, obsID)
		close(ch)

		if len(c.observers) == 0 && c.conn != nil {
			if err := c.conn.Close(); err != nil {
				log.Printf("scan %s: error closing stream: %v", c.id, err)
			}

			c.conn = nil
		}
	}

	return ch, cancel
}

// Stop tears down the active session's channel and goroutines and stops the
// event loop. The controller cannot be reused afterwards.
func (c *Controller) Stop() {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return
	}

	c.closed = true
	c.teardownLocked()
	c.mu.Unlock()

	close(c.done)
	c.wg.Wait()
}

func (c *Controller) loop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.events:
			c.apply(ev)
		}
	}
}

// apply performs one atomic state transition. Events referencing a stale
// scan id are discarded: a new scan may have started while the old channel
// was still draining, and old events must never touch the new session.
func (c *Controller) apply(ev event) {
	c.mu.Lock()

	if c.id == "" || ev.scanID != c.id {
		c.mu.Unlock()
		log.Printf("discarding event for stale scan %q", ev.scanID)

		return
	}

	if c.phase.Terminal() {
		// Duplicate terminal delivery (stream then lagging poll) and late
		// progress are no-ops.
		c.mu.Unlock()
		return
	}

	var (
		fireComplete bool
		record       bool
	)

	switch ev.kind {
	case eventProgress:
		c.ackLocked()
		c.progress = maxInt(c.progress, ev.progress)
		c.total = maxInt(c.total, maxInt(ev.totalAlerts, c.acc.Len()))
	case eventAlerts:
		c.ackLocked()
		c.acc.IngestAppend(ev.alerts)
		c.total = maxInt(c.total, c.acc.Len())
	case eventComplete:
		c.phase = PhaseComplete
		c.progress = 100
		c.finishedAt = time.Now()

		if ev.replace {
			c.acc.IngestReplace(ev.alerts)
			c.total = c.acc.Len()
		} else {
			c.total = maxInt(c.total, maxInt(ev.totalAlerts, c.acc.Len()))
		}

		if !c.completeFired {
			c.completeFired = true
			fireComplete = true
		}

		record = true

		// A terminal session needs neither the channel nor the poll
		// backstop; cancel both so nothing keeps querying a finished scan.
		c.teardownLocked()
	case eventError:
		c.phase = PhaseFailed
		c.lastErr = ev.message
		c.finishedAt = time.Now()
		record = true

		c.teardownLocked()
	}

	snap := c.snapshotLocked()
	recorder := c.recorder
	onComplete := c.onComplete
	c.mu.Unlock()

	c.notify(snap)

	if fireComplete && onComplete != nil {
		onComplete(snap)
	}

	if record {
		if snap.Phase == PhaseFailed {
			log.Printf("scan %s: failed: %s", snap.ID, snap.LastErrorMessage)
		} else {
			log.Printf("scan %s: complete with %d unique alerts", snap.ID, snap.TotalAlertsFound)
		}

		if recorder != nil {
			if err := recorder.RecordSession(context.Background(), snap); err != nil {
				log.Printf("scan %s: failed to record session: %v", snap.ID, err)
			}
		}
	}
}

// ackLocked is the Starting -> Running transition on the first progress or
// status observation from either path.
func (c *Controller) ackLocked() {
	if c.phase == PhaseStarting {
		c.phase = PhaseRunning
	}
}

// teardownLocked cancels the active session's goroutines and closes its
// channel. Synchronous with respect to state: once it returns, the slot can
// adopt a new identifier and any in-flight events from the old session will
// fail the stale-id check.
func (c *Controller) teardownLocked() {
	if c.sessionCancel != nil {
		c.sessionCancel()
		c.sessionCancel = nil
		c.sessionCtx = nil
	}

	c.closeStreamLocked()
}

func (c *Controller) closeStreamLocked() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			log.Printf("scan %s: error closing stream: %v", c.id, err)
		}

		c.conn = nil
	}
}

// startStreamLocked spawns the stream supervisor for the active session if
// one is not already running. The supervisor is tracked by scan id: a loop
// still draining for a torn-down session never blocks the new session from
// getting its own.
func (c *Controller) startStreamLocked() {
	if c.sessionCtx == nil || c.streamID == c.id {
		return
	}

	c.streamID = c.id
	c.wg.Add(1)

	go c.streamLoop(c.sessionCtx, c.id)
}

// streamLoop keeps one streaming channel alive for the session: dial,
// adopt, read until terminal or failure, and redial with bounded
// exponential backoff. It stops when the session goes terminal or stale,
// when all observers detach, when a terminal frame has been delivered, or
// when the stream stalls past the grace window (polling takes over).
func (c *Controller) streamLoop(ctx context.Context, scanID string) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		if c.streamID == scanID {
			c.streamID = ""
		}
		c.mu.Unlock()
	}()

	reconnectMin := time.Duration(c.cfg.ReconnectMin)
	reconnectMax := time.Duration(c.cfg.ReconnectMax)
	grace := time.Duration(c.cfg.StreamGrace)

	limiter := rate.NewLimiter(rate.Every(reconnectMin), 1)
	backoff := reconnectMin

	for {
		if !c.streamWanted(scanID) {
			return
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		conn, err := c.dialer.DialScan(ctx, scanID)
		if err != nil {
			log.Printf("scan %s: stream dial failed, retrying in %s: %v", scanID, backoff, err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}

			backoff = minDuration(backoff*2, reconnectMax)

			continue
		}

		backoff = reconnectMin

		if !c.adoptConn(scanID, conn) {
			if err := conn.Close(); err != nil {
				log.Printf("scan %s: error closing stream: %v", scanID, err)
			}

			return
		}

		reader := &streamReader{
			scanID: scanID,
			conn:   conn,
			events: c.events,
			grace:  grace,
			done:   ctx.Done(),
		}

		err = reader.run()
		c.releaseConn(conn)

		switch {
		case err == nil:
			// Terminal frame delivered; the channel stays down.
			return
		case errors.Is(err, errStreamStalled):
			log.Printf("scan %s: no frames for %s, closing stream and falling back to polling", scanID, grace)
			return
		default:
			log.Printf("scan %s: stream closed: %v", scanID, err)
		}
	}
}

// streamWanted reports whether the session still needs a streaming channel.
func (c *Controller) streamWanted(scanID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return !c.closed && c.id == scanID && !c.phase.Terminal() && len(c.observers) > 0
}

// adoptConn installs the freshly dialed channel as the session's one live
// connection. It refuses if the session went stale or terminal during the
// dial.
func (c *Controller) adoptConn(scanID string, conn StreamConn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.id != scanID || c.phase.Terminal() {
		return false
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			log.Printf("scan %s: error closing stream: %v", scanID, err)
		}
	}

	c.conn = conn

	return true
}

func (c *Controller) releaseConn(conn StreamConn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == conn {
		c.conn = nil
	}
}

func (c *Controller) snapshotLocked() ScanSession {
	return ScanSession{
		ID:               c.id,
		TargetURL:        c.target,
		Kind:             c.kind,
		Phase:            c.phase,
		ProgressPercent:  c.progress,
		TotalAlertsFound: c.total,
		LastErrorMessage: c.lastErr,
		StartedAt:        c.startedAt,
		FinishedAt:       c.finishedAt,
		Alerts:           c.acc.Alerts(),
		SummaryByRisk:    c.acc.SummaryByRisk(),
	}
}

// notify pushes the snapshot to every observer, latest-wins: a full buffer
// is drained so observers never block the controller and never read stale
// state last.
func (c *Controller) notify(snap ScanSession) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, ch := range c.observers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}

			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}

	return b
}

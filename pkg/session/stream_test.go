package session

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptConn feeds scripted frames to a streamReader and then fails the
// next read with finalErr (io.EOF models a server-side close).
type scriptConn struct {
	mu       sync.Mutex
	frames   [][]byte
	finalErr error
	closed   bool
}

func newScriptConn(finalErr error, frames ...string) *scriptConn {
	c := &scriptConn{finalErr: finalErr}
	for _, f := range frames {
		c.frames = append(c.frames, []byte(f))
	}

	return c
}

func (c *scriptConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, nil, errors.New("use of closed connection")
	}

	if len(c.frames) == 0 {
		return 0, nil, c.finalErr
	}

	data := c.frames[0]
	c.frames = c.frames[1:]

	return 1, data, nil
}

func (c *scriptConn) SetReadDeadline(_ time.Time) error { return nil }

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	return nil
}

// timeoutErr satisfies net.Error to model a read deadline expiry.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "read timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func runReader(t *testing.T, conn StreamConn) ([]event, error) {
	t.Helper()

	events := make(chan event, 32)
	done := make(chan struct{})
	defer close(done)

	r := &streamReader{
		scanID: "42",
		conn:   conn,
		events: events,
		grace:  time.Second,
		done:   done,
	}

	err := r.run()

	collected := make([]event, 0)
	for {
		select {
		case ev := <-events:
			collected = append(collected, ev)
		default:
			return collected, err
		}
	}
}

func TestStreamReaderProgressThenDone(t *testing.T) {
	conn := newScriptConn(io.EOF,
		`ping`,
		`{"type":"progress","progress":30,"total_alerts":2,"new_alerts":[{"name":"XSS","risk":"Medium","url":"http://x"}]}`,
		`{"type":"done","alerts":[{"alert":"XSS","risk":"Medium","url":"http://x"},{"alert":"SQLi","risk":"High","url":"http://y"}],"alerts_count":2}`,
	)

	events, err := runReader(t, conn)
	require.NoError(t, err, "terminal frame ends the stream cleanly")
	assert.True(t, conn.closed, "reader owns and closes the socket")

	require.Len(t, events, 3)

	assert.Equal(t, eventProgress, events[0].kind)
	assert.Equal(t, 30, events[0].progress)
	assert.Equal(t, 2, events[0].totalAlerts)
	assert.Equal(t, "42", events[0].scanID)

	assert.Equal(t, eventAlerts, events[1].kind)
	require.Len(t, events[1].alerts, 1)
	assert.Equal(t, "XSS", events[1].alerts[0].Name)

	assert.Equal(t, eventComplete, events[2].kind)
	assert.True(t, events[2].replace, "done is a full replace, not an append")
	assert.Len(t, events[2].alerts, 2)
	assert.Equal(t, 2, events[2].totalAlerts)
}

func TestStreamReaderHeartbeatsAreDropped(t *testing.T) {
	conn := newScriptConn(io.EOF, `ping`, `"ping"`, `ping`)

	events, err := runReader(t, conn)
	assert.ErrorIs(t, err, io.EOF)
	assert.Empty(t, events, "heartbeats are not forwarded as events")
}

func TestStreamReaderMalformedFrameIsNonFatal(t *testing.T) {
	conn := newScriptConn(io.EOF,
		`{"type":"progress","pro`,
		`{"type":"progress","progress":50}`,
	)

	events, err := runReader(t, conn)
	assert.ErrorIs(t, err, io.EOF)
	require.Len(t, events, 1, "connection stays open past a malformed frame")
	assert.Equal(t, 50, events[0].progress)
}

func TestStreamReaderErrorFrame(t *testing.T) {
	conn := newScriptConn(io.EOF,
		`{"type":"error","message":"target unreachable"}`,
		`{"type":"progress","progress":99}`,
	)

	events, err := runReader(t, conn)
	require.NoError(t, err)

	require.Len(t, events, 1, "nothing is processed after a terminal frame")
	assert.Equal(t, eventError, events[0].kind)
	assert.Equal(t, "target unreachable", events[0].message)
}

func TestStreamReaderErrorFrameDefaultMessage(t *testing.T) {
	conn := newScriptConn(io.EOF, `{"type":"error"}`)

	events, err := runReader(t, conn)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "scan failed", events[0].message)
}

func TestStreamReaderLegacyAlertsSnapshot(t *testing.T) {
	conn := newScriptConn(io.EOF,
		`{"alerts":[{"alert":"XSS","risk":"Medium","url":"http://x"}]}`,
	)

	events, err := runReader(t, conn)
	assert.ErrorIs(t, err, io.EOF)
	require.Len(t, events, 1)
	assert.Equal(t, eventAlerts, events[0].kind)
	require.Len(t, events[0].alerts, 1)
	assert.Equal(t, "XSS", events[0].alerts[0].Name)
}

func TestStreamReaderUnknownTypeIgnored(t *testing.T) {
	conn := newScriptConn(io.EOF, `{"type":"telemetry","cpu":12}`)

	events, err := runReader(t, conn)
	assert.ErrorIs(t, err, io.EOF)
	assert.Empty(t, events)
}

func TestStreamReaderStalled(t *testing.T) {
	conn := newScriptConn(timeoutErr{}, `{"type":"progress","progress":10}`)

	events, err := runReader(t, conn)
	assert.ErrorIs(t, err, errStreamStalled)
	require.Len(t, events, 1, "silence emits no state-mutating event")
}

func TestStreamReaderUnsolicitedClose(t *testing.T) {
	conn := newScriptConn(io.EOF, `{"type":"progress","progress":10}`)

	events, err := runReader(t, conn)
	assert.ErrorIs(t, err, io.EOF, "closure without done/error is reported to the supervisor")
	require.Len(t, events, 1, "no failure event is fabricated for a dropped connection")
	assert.Equal(t, eventProgress, events[0].kind)
}

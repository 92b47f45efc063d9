package session

import (
	"errors"
	"log"
	"net"
	"time"
)

// streamReader consumes one streaming channel and translates raw frames into
// normalized events. It owns the connection for the duration of run: the
// socket is closed on return, after a terminal frame, a read failure, or
// grace-period silence.
type streamReader struct {
	scanID string
	conn   StreamConn
	events chan<- event
	grace  time.Duration
	done   <-chan struct{}
}

// run reads frames until the channel delivers a terminal frame or stops
// producing. A nil return means a done/error frame was forwarded; the
// channel must not be redialed for this session. errStreamStalled means the
// grace window elapsed without any frame (heartbeats included) and the
// caller should fall back to polling. Any other error is an unsolicited
// closure: no state-mutating event is emitted, since the scan continues
// server-side regardless of the viewer's connection.
func (r *streamReader) run() error {
	defer func() {
		if err := r.conn.Close(); err != nil {
			return
		}
	}()

	for {
		if r.grace > 0 {
			if err := r.conn.SetReadDeadline(time.Now().Add(r.grace)); err != nil {
				return err
			}
		}

		_, data, err := r.conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return errStreamStalled
			}

			return err
		}

		class, f, err := classifyFrame(data)
		if err != nil {
			// Malformed frames are a local protocol error: logged, the
			// connection stays open.
			log.Printf("scan %s: dropping malformed frame: %v", r.scanID, err)
			continue
		}

		switch class {
		case classHeartbeat, classUnknown:
			continue
		case classProgress:
			r.emit(event{kind: eventProgress, progress: f.Progress, totalAlerts: f.TotalAlerts})

			if len(f.NewAlerts) > 0 {
				r.emit(event{kind: eventAlerts, alerts: f.NewAlerts})
			}
		case classLegacyAlerts:
			r.emit(event{kind: eventAlerts, alerts: f.Alerts})
		case classDone:
			count := len(f.Alerts)
			if f.AlertsCount != nil {
				count = *f.AlertsCount
			}

			r.emit(event{kind: eventComplete, alerts: f.Alerts, totalAlerts: count, replace: true})

			return nil
		case classError:
			msg := f.Message
			if msg == "" {
				msg = "scan failed"
			}

			r.emit(event{kind: eventError, message: msg})

			return nil
		}
	}
}

func (r *streamReader) emit(ev event) {
	ev.scanID = r.scanID

	select {
	case r.events <- ev:
	case <-r.done:
	}
}

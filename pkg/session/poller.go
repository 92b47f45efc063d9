package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/awast-sec/awast-go/pkg/models"
	"github.com/awast-sec/awast-go/pkg/zap"
)

// pollFallback periodically queries scan status through the request
// primitive. It is the sole update mechanism when no streaming channel is
// up, and a correctness backstop while one is: if the stream stalls, state
// is at most one poll interval stale.
type pollFallback struct {
	api      ScanAPI
	interval time.Duration
	events   chan<- event
	done     <-chan struct{}
}

// run polls until the context is canceled or a terminal status is observed.
func (p *pollFallback) run(ctx context.Context, scanID, target string, spider bool) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
		}

		if terminal := p.pollOnce(ctx, scanID, target, spider); terminal {
			return
		}
	}
}

// pollOnce fetches the current status and posts the matching event. It
// returns true once a terminal observation has been delivered. Transient
// poll failures are swallowed and retried on the next tick; they must not
// mask an otherwise healthy stream.
func (p *pollFallback) pollOnce(ctx context.Context, scanID, target string, spider bool) bool {
	var (
		status models.ScanStatus
		err    error
	)

	if spider {
		status, err = p.api.SpiderStatus(ctx, scanID)
	} else {
		status, err = p.api.ScanStatus(ctx, scanID)
	}

	if err != nil {
		if errors.Is(err, zap.ErrUnauthorized) {
			p.emit(scanID, event{kind: eventError, message: "session unauthorized", fromPoll: true})
			return true
		}

		log.Printf("scan %s: status poll failed: %v", scanID, err)

		return false
	}

	if status.Done() {
		ev := event{kind: eventComplete, progress: 100, fromPoll: true}

		// The poll path carries no findings, so the final set is fetched
		// before the completion event is posted. A fetch failure still
		// completes the session with whatever the accumulator holds.
		if !spider {
			alerts, err := p.api.Alerts(ctx, target)
			if err != nil {
				log.Printf("scan %s: failed to fetch final alerts: %v", scanID, err)
			} else {
				ev.alerts = alerts
				ev.replace = true
				ev.totalAlerts = len(alerts)
			}
		}

		p.emit(scanID, ev)

		return true
	}

	p.emit(scanID, event{kind: eventProgress, progress: status.Percent(), fromPoll: true})

	return false
}

func (p *pollFallback) emit(scanID string, ev event) {
	ev.scanID = scanID

	select {
	case p.events <- ev:
	case <-p.done:
	}
}

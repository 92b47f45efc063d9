package config

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultStreamGrace  = 30 * time.Second
	defaultReconnectMin = 1 * time.Second
	defaultReconnectMax = 30 * time.Second
)

var errAPIURLRequired = fmt.Errorf("api_url is required")

// Duration is a wrapper around time.Duration for JSON unmarshaling.
// It accepts either a number (nanoseconds) or a Go duration string.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

// ClientConfig represents the configuration for the AWAST API client and
// scan session controller.
type ClientConfig struct {
	APIURL             string   `json:"api_url"`             // e.g., http://localhost:8000
	PollInterval       Duration `json:"poll_interval"`       // status poll cadence; bounds stream staleness
	StreamGrace        Duration `json:"stream_grace"`        // silence window before a stalled stream is abandoned
	ReconnectMin       Duration `json:"reconnect_min"`       // initial stream reconnect backoff
	ReconnectMax       Duration `json:"reconnect_max"`       // backoff ceiling
	InsecureSkipVerify bool     `json:"insecure_skip_verify"`
}

// Validate checks the configuration and fills zero intervals with
// defaults.
func (c *ClientConfig) Validate() error {
	if c.APIURL == "" {
		return errAPIURLRequired
	}

	if time.Duration(c.PollInterval) == 0 {
		c.PollInterval = Duration(defaultPollInterval)
	}

	if time.Duration(c.StreamGrace) == 0 {
		c.StreamGrace = Duration(defaultStreamGrace)
	}

	if time.Duration(c.ReconnectMin) == 0 {
		c.ReconnectMin = Duration(defaultReconnectMin)
	}

	if time.Duration(c.ReconnectMax) == 0 {
		c.ReconnectMax = Duration(defaultReconnectMax)
	}

	return nil
}

// Package config pkg/config/config.go loads the client configuration from
// a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

var errInvalidDuration = fmt.Errorf("invalid duration")

// LoadFile reads the JSON configuration at path into cfg. Fields absent
// from the file keep their zero value; Validate fills the defaults
// afterwards.
func LoadFile(path string, cfg *ClientConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config '%s': %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config '%s': %w", path, err)
	}

	return nil
}

package models

import "time"

// ClientConfig contains runtime options for the outbound HTTP client.
type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
}

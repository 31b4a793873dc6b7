package model

import "time"

// UsageEvent is one best-effort analytics record appended to the mirror.
type UsageEvent struct {
	Action   string    `json:"action"`
	DeviceID string    `json:"deviceId"`
	At       time.Time `json:"timestamp"`
}

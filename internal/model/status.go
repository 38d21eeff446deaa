package model

import "time"

// Status mirrors GET /api/status.
type Status struct {
	Version           string      `json:"version"`
	Backend           string      `json:"backend,omitempty"`
	RainLockExpiresAt *Timestamp  `json:"rain_lock_expires_at,omitempty"`
	Zones             []ZoneState `json:"zones,omitempty"`
}

// ZoneState reports one relay output as seen by the controller.
type ZoneState struct {
	Zone             int  `json:"zone"`
	GPIO             int  `json:"gpio"`
	IsOn             bool `json:"is_on"`
	RemainingMinutes *int `json:"remaining_minutes,omitempty"`
}

// RainLocked reports whether a rain lock is in force at now.
func (s Status) RainLocked(now time.Time) bool {
	return s.RainLockExpiresAt != nil && now.Before(s.RainLockExpiresAt.Time)
}

// RainLock is the body of POST /api/rain-lock.
type RainLock struct {
	Hours int `json:"hours"`
}

// RainLockState is returned by the rain-lock endpoints.
type RainLockState struct {
	ExpiresAt *Timestamp `json:"rain_lock_expires_at"`
}

// Package state provides thread-safe state management for the sprinkler
// dashboard.
//
// # Overview
//
// Store holds the latest controller status, the merged pin view and the
// schedule list. The background poller writes it; the UI reads it.
//
//	Producer (Poller):             Consumer (UI):
//	┌─────────────────┐           ┌──────────────────┐
//	│ Check()         │           │                  │
//	│ FetchPins()     │           │                  │
//	│ ListSchedules() │           │                  │
//	│      ↓          │           │                  │
//	│ store.Update()  │──────────→│ store.Snapshot() │
//	│      ↓          │  (mutex)  │      ↓           │
//	│  repeat...      │           │  render UI       │
//	└─────────────────┘           └──────────────────┘
//
// # Failure Handling
//
// An Update carrying an error keeps the previous data, records the error and
// increments ConsecutiveFailures. Two or more consecutive failures mark the
// snapshot offline. The next successful Update resets the counter.
//
// # Copying
//
// Snapshot and Update copy slices and pointer fields, so callers may mutate
// what they hold without racing the store.
package state

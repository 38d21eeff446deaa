package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/sprinkler/internal/model"
	"github.com/five82/sprinkler/internal/schedule"
)

// Snapshot represents the latest controller data available to the UI.
type Snapshot struct {
	Status              model.Status
	HasStatus           bool
	Pins                []model.Pin
	Schedules           []model.Schedule
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the controller has been unreachable for
// multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// RainLocked reports whether the last known status carries an unexpired rain lock.
func (s Snapshot) RainLocked(now time.Time) bool {
	return s.HasStatus && s.Status.RainLocked(now)
}

// Upcoming returns each schedule's next run within the look-ahead window.
func (s Snapshot) Upcoming(now time.Time, loc *time.Location, days int) []schedule.Occurrence {
	return schedule.Upcoming(s.Schedules, now, loc, days)
}

// ActivePins returns the pins currently reported as running.
func (s Snapshot) ActivePins() []model.Pin {
	var out []model.Pin
	for _, p := range s.Pins {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(status *model.Status, pins []model.Pin, schedules []model.Schedule, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Pins = clonePins(pins)
	s.snapshot.Schedules = cloneSchedules(schedules)
	if status != nil {
		s.snapshot.Status = cloneStatus(*status)
		s.snapshot.HasStatus = true
	} else {
		s.snapshot.HasStatus = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Pins returns a copy of the last stored pin view.
func (s *Store) Pins() []model.Pin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePins(s.snapshot.Pins)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Pins = clonePins(s.snapshot.Pins)
	snap.Schedules = cloneSchedules(s.snapshot.Schedules)
	snap.Status = cloneStatus(s.snapshot.Status)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func clonePins(items []model.Pin) []model.Pin {
	if len(items) == 0 {
		return nil
	}
	dup := make([]model.Pin, len(items))
	for i, p := range items {
		dup[i] = model.Pin{
			Number:    p.Number,
			Name:      clonePtr(p.Name),
			IsActive:  clonePtr(p.IsActive),
			IsEnabled: clonePtr(p.IsEnabled),
		}
	}
	return dup
}

func cloneSchedules(items []model.Schedule) []model.Schedule {
	if len(items) == 0 {
		return nil
	}
	dup := make([]model.Schedule, len(items))
	for i, sc := range items {
		sc.Name = clonePtr(sc.Name)
		sc.RunTimeMinutes = clonePtr(sc.RunTimeMinutes)
		sc.Days = slices.Clone(sc.Days)
		sc.Sequence = slices.Clone(sc.Sequence)
		dup[i] = sc
	}
	return dup
}

func cloneStatus(st model.Status) model.Status {
	st.Zones = slices.Clone(st.Zones)
	for i := range st.Zones {
		st.Zones[i].RemainingMinutes = clonePtr(st.Zones[i].RemainingMinutes)
	}
	if st.RainLockExpiresAt != nil {
		ts := *st.RainLockExpiresAt
		st.RainLockExpiresAt = &ts
	}
	return st
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

package simulator

import (
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/sprinkler/internal/model"
)

// Problem is a failed operation with the HTTP status and detail the API
// reports for it.
type Problem struct {
	Status int
	Detail string
}

func (p *Problem) Error() string {
	return fmt.Sprintf("%d: %s", p.Status, p.Detail)
}

func problem(status int, format string, args ...any) *Problem {
	return &Problem{Status: status, Detail: fmt.Sprintf(format, args...)}
}

type pinState struct {
	name        string
	enabled     bool
	activeUntil time.Time
}

// Controller is an in-memory irrigation controller. All methods are safe
// for concurrent use. Pin timers are evaluated lazily against the clock, so
// no goroutines run in the background.
type Controller struct {
	mu        sync.Mutex
	now       func() time.Time
	version   string
	order     []int
	pins      map[int]*pinState
	schedules []model.Schedule
	rainUntil time.Time
}

// NewController returns a controller driving the given pins. now may be nil.
func NewController(pinNumbers []int, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	c := &Controller{
		now:     now,
		version: "1.1.0",
		pins:    make(map[int]*pinState, len(pinNumbers)),
	}
	for _, n := range pinNumbers {
		if _, dup := c.pins[n]; dup || n <= 0 {
			continue
		}
		c.order = append(c.order, n)
		c.pins[n] = &pinState{enabled: true}
	}
	return c
}

// Seed installs demo names and schedules.
func (c *Controller) Seed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.order {
		c.pins[n].name = fmt.Sprintf("Zone %d", i+1)
	}
	if len(c.order) >= 2 {
		c.schedules = append(c.schedules,
			model.Schedule{
				ID: uuid.NewString(), Name: model.String("Front lawn"),
				StartTime: "06:00", Days: []string{"Mon", "Wed", "Fri"}, Enabled: true,
				RunTimeMinutes: model.Int(15),
			},
			model.Schedule{
				ID: uuid.NewString(), Name: model.String("Beds overnight"),
				StartTime: "23:30", Days: []string{"Tue", "Sat"}, Enabled: true,
				Sequence: []model.Step{{Pin: c.order[0], DurationMinutes: 45}, {Pin: c.order[1], DurationMinutes: 90}},
			})
	}
}

// Status reports version, rain lock and per-zone state.
func (c *Controller) Status() model.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	st := model.Status{Version: c.version, Backend: "simulator"}
	if now.Before(c.rainUntil) {
		st.RainLockExpiresAt = &model.Timestamp{Time: c.rainUntil}
	}
	for i, n := range c.order {
		p := c.pins[n]
		zone := model.ZoneState{Zone: i + 1, GPIO: n, IsOn: now.Before(p.activeUntil)}
		if zone.IsOn {
			zone.RemainingMinutes = model.Int(int(p.activeUntil.Sub(now).Round(time.Minute) / time.Minute))
		}
		st.Zones = append(st.Zones, zone)
	}
	return st
}

// Pins reports every pin with all fields set.
func (c *Controller) Pins() []model.Pin {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	out := make([]model.Pin, 0, len(c.order))
	for _, n := range c.order {
		p := c.pins[n]
		pin := model.Pin{
			Number:    n,
			IsActive:  model.Bool(now.Before(p.activeUntil)),
			IsEnabled: model.Bool(p.enabled),
		}
		if p.name != "" {
			pin.Name = model.String(p.name)
		}
		out = append(out, pin)
	}
	return out
}

// RunPin energises pin for minutes; zero minutes stops it.
func (c *Controller) RunPin(pin, minutes int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pins[pin]
	if !ok {
		return problem(http.StatusNotFound, "Zone not configured")
	}
	if minutes < 0 {
		return problem(http.StatusBadRequest, "Runtime must be positive")
	}
	now := c.now()
	if minutes == 0 {
		p.activeUntil = time.Time{}
		return nil
	}
	if now.Before(c.rainUntil) {
		return problem(http.StatusConflict, "Rain lock active")
	}
	if !p.enabled {
		return problem(http.StatusConflict, "Zone disabled")
	}
	p.activeUntil = now.Add(time.Duration(minutes) * time.Minute)
	return nil
}

// SetRainLock suspends watering for hours and stops running pins.
func (c *Controller) SetRainLock(hours int) (model.RainLockState, error) {
	if hours <= 0 {
		return model.RainLockState{}, problem(http.StatusBadRequest, "Hours must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rainUntil = c.now().Add(time.Duration(hours) * time.Hour)
	for _, p := range c.pins {
		p.activeUntil = time.Time{}
	}
	return model.RainLockState{ExpiresAt: &model.Timestamp{Time: c.rainUntil}}, nil
}

// ClearRainLock lifts the rain lock.
func (c *Controller) ClearRainLock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rainUntil = time.Time{}
}

// Schedules returns the schedules in stored order.
func (c *Controller) Schedules() []model.Schedule {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.schedules)
}

// CreateSchedule stores s, assigning an ID when empty.
func (c *Controller) CreateSchedule(s model.Schedule) (model.Schedule, error) {
	if err := s.Validate(); err != nil {
		return model.Schedule{}, problem(http.StatusUnprocessableEntity, "%v", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if c.indexOf(s.ID) >= 0 {
		return model.Schedule{}, problem(http.StatusConflict, "Schedule %s already exists", s.ID)
	}
	c.schedules = append(c.schedules, s)
	return s, nil
}

// UpdateSchedule replaces the schedule with id.
func (c *Controller) UpdateSchedule(id string, s model.Schedule) (model.Schedule, error) {
	s.ID = id
	if err := s.Validate(); err != nil {
		return model.Schedule{}, problem(http.StatusUnprocessableEntity, "%v", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return model.Schedule{}, problem(http.StatusNotFound, "Schedule not found")
	}
	c.schedules[i] = s
	return s, nil
}

// DeleteSchedule removes the schedule with id.
func (c *Controller) DeleteSchedule(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return problem(http.StatusNotFound, "Schedule not found")
	}
	c.schedules = slices.Delete(c.schedules, i, i+1)
	return nil
}

// ReorderSchedules applies ids, which must name every schedule exactly once.
func (c *Controller) ReorderSchedules(ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(ids) != len(c.schedules) {
		return problem(http.StatusBadRequest, "Reorder must list all %d schedules", len(c.schedules))
	}
	next := make([]model.Schedule, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		i := c.indexOf(id)
		if i < 0 || seen[id] {
			return problem(http.StatusBadRequest, "Unknown or repeated schedule id %q", id)
		}
		seen[id] = true
		next = append(next, c.schedules[i])
	}
	c.schedules = next
	return nil
}

func (c *Controller) indexOf(id string) int {
	return slices.IndexFunc(c.schedules, func(s model.Schedule) bool { return s.ID == id })
}

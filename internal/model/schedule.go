package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Step is one zone of a multi-zone sequence.
type Step struct {
	Pin             int `json:"pin"`
	DurationMinutes int `json:"duration"`
}

// Schedule mirrors a recurring watering program. Duration is carried either
// by RunTimeMinutes or by Sequence, never both.
type Schedule struct {
	ID             string   `json:"id"`
	Name           *string  `json:"name,omitempty"`
	StartTime      string   `json:"start_time"`
	Days           []string `json:"days"`
	Enabled        bool     `json:"is_enabled"`
	RunTimeMinutes *int     `json:"duration,omitempty"`
	Sequence       []Step   `json:"sequence,omitempty"`
}

// Label returns the schedule name, falling back to its ID.
func (s Schedule) Label() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}
	return s.ID
}

// TotalDuration is RunTimeMinutes when present, else the sum of the
// sequence's positive step durations.
func (s Schedule) TotalDuration() time.Duration {
	if s.RunTimeMinutes != nil {
		if *s.RunTimeMinutes <= 0 {
			return 0
		}
		return time.Duration(*s.RunTimeMinutes) * time.Minute
	}
	total := 0
	for _, step := range s.Sequence {
		if step.DurationMinutes > 0 {
			total += step.DurationMinutes
		}
	}
	return time.Duration(total) * time.Minute
}

// ClockTime returns the hour and minute of StartTime.
func (s Schedule) ClockTime() (hour, minute int, err error) {
	return ParseClock(s.StartTime)
}

// Weekdays returns the set of weekdays named by Days. Unknown tokens are
// reported as an error alongside the days that did parse.
func (s Schedule) Weekdays() (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool, len(s.Days))
	var unknown []string
	for _, token := range s.Days {
		day, ok := ParseWeekday(token)
		if !ok {
			unknown = append(unknown, token)
			continue
		}
		days[day] = true
	}
	if len(unknown) > 0 {
		return days, fmt.Errorf("unknown day tokens %q", unknown)
	}
	return days, nil
}

// Validate checks the schedule before it is sent to the controller.
func (s Schedule) Validate() error {
	var errs []error
	if _, _, err := s.ClockTime(); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.Weekdays(); err != nil {
		errs = append(errs, err)
	}
	switch {
	case s.RunTimeMinutes != nil && len(s.Sequence) > 0:
		errs = append(errs, errors.New("duration and sequence are mutually exclusive"))
	case s.RunTimeMinutes == nil && len(s.Sequence) == 0:
		errs = append(errs, errors.New("either duration or sequence is required"))
	}
	for i, step := range s.Sequence {
		if step.Pin <= 0 {
			errs = append(errs, fmt.Errorf("sequence step %d: invalid pin %d", i, step.Pin))
		}
		if step.DurationMinutes <= 0 {
			errs = append(errs, fmt.Errorf("sequence step %d: duration must be positive", i))
		}
	}
	if s.TotalDuration() <= 0 {
		errs = append(errs, errors.New("total duration must be positive"))
	}
	return errors.Join(errs...)
}

// ParseClock parses an "HH:MM" wall-clock string.
func ParseClock(value string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, fmt.Errorf("start time %q: want HH:MM", value)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("start time %q: invalid hour", value)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || len(m) != 2 {
		return 0, 0, fmt.Errorf("start time %q: invalid minute", value)
	}
	return hour, minute, nil
}

var weekdayTokens = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday maps a day token such as "Mon" or "tuesday" to a weekday.
func ParseWeekday(token string) (time.Weekday, bool) {
	day, ok := weekdayTokens[strings.ToLower(strings.TrimSpace(token))]
	return day, ok
}

// WeekdayToken returns the canonical three-letter token for day.
func WeekdayToken(day time.Weekday) string {
	return day.String()[:3]
}

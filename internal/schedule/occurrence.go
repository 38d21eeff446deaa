package schedule

import (
	"cmp"
	"slices"
	"time"

	"github.com/five82/sprinkler/internal/model"
)

// StepWindow is the slice of an occurrence during which one pin runs.
type StepWindow struct {
	Pin   int
	Start time.Time
	End   time.Time
}

// Occurrence is one dated run of a recurring schedule.
type Occurrence struct {
	ScheduleID string
	Name       string
	Start      time.Time
	End        time.Time
	// Steps is empty for schedules with a single run time.
	Steps []StepWindow
}

// Duration returns End - Start.
func (o Occurrence) Duration() time.Duration {
	return o.End.Sub(o.Start)
}

// Contains reports whether at falls within [Start, End).
func (o Occurrence) Contains(at time.Time) bool {
	return !at.Before(o.Start) && at.Before(o.End)
}

// ActiveStep returns the sequence step running at the given instant.
func (o Occurrence) ActiveStep(at time.Time) (StepWindow, bool) {
	for _, step := range o.Steps {
		if !at.Before(step.Start) && at.Before(step.End) {
			return step, true
		}
	}
	return StepWindow{}, false
}

// Occurrences returns, for each enabled schedule, the earliest run that has
// not finished by ref. Start times are wall-clock in loc; nil loc means
// time.Local. Runs started on the previous day are included while still in
// progress, and an end may fall on a later day than its start.
//
// Results are sorted by start, then schedule ID.
func Occurrences(schedules []model.Schedule, ref time.Time, loc *time.Location) []Occurrence {
	return scan(schedules, ref, loc, 0)
}

// Upcoming is Occurrences with a look-ahead of days beyond the reference
// day, so each schedule reports its next run even if it is not today.
func Upcoming(schedules []model.Schedule, ref time.Time, loc *time.Location, days int) []Occurrence {
	if days < 0 {
		days = 0
	}
	return scan(schedules, ref, loc, days)
}

func scan(schedules []model.Schedule, ref time.Time, loc *time.Location, ahead int) []Occurrence {
	if loc == nil {
		loc = time.Local
	}
	local := ref.In(loc)
	year, month, day := local.Date()

	out := make([]Occurrence, 0, len(schedules))
	for _, s := range schedules {
		p, ok := plan(s)
		if !ok {
			continue
		}
		// Offsets are visited in ascending order, so the first surviving
		// candidate is the earliest.
		for offset := -1; offset <= ahead; offset++ {
			start := time.Date(year, month, day+offset, p.hour, p.minute, 0, 0, loc)
			if !p.days[start.Weekday()] {
				continue
			}
			end := start.Add(p.total)
			if !end.After(ref) {
				continue
			}
			out = append(out, p.occurrence(s, start, end))
			break
		}
	}

	slices.SortStableFunc(out, func(a, b Occurrence) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ScheduleID, b.ScheduleID)
	})
	return out
}

type runPlan struct {
	hour, minute int
	days         map[time.Weekday]bool
	total        time.Duration
}

// plan extracts what the calculator needs from s. Disabled schedules and
// schedules with an unparseable start, unknown day tokens or no positive
// duration are skipped.
func plan(s model.Schedule) (runPlan, bool) {
	if !s.Enabled {
		return runPlan{}, false
	}
	hour, minute, err := s.ClockTime()
	if err != nil {
		return runPlan{}, false
	}
	days, err := s.Weekdays()
	if err != nil || len(days) == 0 {
		return runPlan{}, false
	}
	total := s.TotalDuration()
	if total <= 0 {
		return runPlan{}, false
	}
	return runPlan{hour: hour, minute: minute, days: days, total: total}, true
}

func (p runPlan) occurrence(s model.Schedule, start, end time.Time) Occurrence {
	occ := Occurrence{
		ScheduleID: s.ID,
		Name:       s.Label(),
		Start:      start,
		End:        end,
	}
	if s.RunTimeMinutes != nil {
		return occ
	}
	cursor := start
	for _, step := range s.Sequence {
		if step.DurationMinutes <= 0 {
			continue
		}
		next := cursor.Add(time.Duration(step.DurationMinutes) * time.Minute)
		occ.Steps = append(occ.Steps, StepWindow{Pin: step.Pin, Start: cursor, End: next})
		cursor = next
	}
	return occ
}

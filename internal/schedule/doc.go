// Package schedule turns recurring watering schedules into dated
// occurrences. It is pure and safe for concurrent use.
package schedule

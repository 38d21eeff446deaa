package pins

import (
	"slices"

	"github.com/five82/sprinkler/internal/model"
)

// Merge reconciles the controller's partial pin report with the current
// local view. A nil remote means no report was received: current is returned
// as is, or the catalog defaults when current is empty. A non-nil remote,
// even an empty one, is a report.
//
// With a report, catalog pins named by remote come first in remote order,
// each field taken from remote when set, else from current, else the
// default. The remaining catalog pins follow in catalog order. The result
// always has exactly one record per catalog pin. Remote entries for pins
// outside the catalog are dropped; see Unknown. When remote repeats a pin the
// first entry wins.
func (c Catalog) Merge(current, remote []model.Pin) []model.Pin {
	if remote == nil {
		if len(current) > 0 {
			return clonePins(current)
		}
		return c.Defaults()
	}

	known := make(map[int]model.Pin, len(current))
	for _, p := range current {
		if _, seen := known[p.Number]; !seen {
			known[p.Number] = p
		}
	}

	out := make([]model.Pin, 0, len(c.numbers))
	covered := make(map[int]bool, len(c.numbers))
	for _, r := range remote {
		if !c.Contains(r.Number) || covered[r.Number] {
			continue
		}
		covered[r.Number] = true
		out = append(out, overlay(r, known[r.Number], defaultPin(r.Number)))
	}
	for _, n := range c.numbers {
		if covered[n] {
			continue
		}
		if p, ok := known[n]; ok {
			out = append(out, overlay(model.Pin{Number: n}, p, defaultPin(n)))
			continue
		}
		out = append(out, defaultPin(n))
	}
	return out
}

// Unknown returns the pin numbers in remote that are not in the catalog, in
// first-seen order.
func (c Catalog) Unknown(remote []model.Pin) []int {
	var out []int
	for _, p := range remote {
		if !c.Contains(p.Number) && !slices.Contains(out, p.Number) {
			out = append(out, p.Number)
		}
	}
	return out
}

func overlay(remote, current, fallback model.Pin) model.Pin {
	return model.Pin{
		Number:    remote.Number,
		Name:      first(remote.Name, current.Name, fallback.Name),
		IsActive:  first(remote.IsActive, current.IsActive, fallback.IsActive),
		IsEnabled: first(remote.IsEnabled, current.IsEnabled, fallback.IsEnabled),
	}
}

// first returns a copy of the first non-nil value.
func first[T any](values ...*T) *T {
	for _, v := range values {
		if v != nil {
			c := *v
			return &c
		}
	}
	return nil
}

func clonePins(in []model.Pin) []model.Pin {
	out := make([]model.Pin, len(in))
	for i, p := range in {
		out[i] = overlay(p, model.Pin{}, model.Pin{})
	}
	return out
}

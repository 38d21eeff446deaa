// Package pins reconciles the controller's pin report with the fixed
// hardware catalog.
//
// The controller's GET /api/pins response is partial: it may omit pins, omit
// fields, or report pins the local wiring does not know. Catalog.Merge
// produces the view the dashboard renders, always one record per wired pin,
// preferring reported values and falling back to what was last known.
package pins

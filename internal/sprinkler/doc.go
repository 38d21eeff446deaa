// Package sprinkler is the domain client for the irrigation controller API.
//
// Client turns schedule and pin operations into api.Endpoint values with
// fixed paths and hands them to an api.Doer:
//
//   - GET    /api/status                 controller health (never cached)
//   - GET    /api/schedules              list schedules
//   - POST   /api/schedules              create
//   - PUT    /api/schedules/{id}         update
//   - DELETE /api/schedules/{id}         delete
//   - POST   /api/schedules/reorder      JSON array of schedule IDs
//   - GET    /api/pins                   partial pin report
//   - POST   /api/pins/{pin}/action      {"duration": minutes}, 0 stops
//   - POST   /api/rain-lock              {"hours": n}
//   - DELETE /api/rain-lock
//
// Before each call the Authenticator is asked for an Authorization header.
// The client adds no retries of its own; the transport's classified error is
// returned unchanged.
//
// Monitor wraps FetchStatus behind a single-flight gate so that a burst of
// connectivity checks produces one network round trip.
package sprinkler

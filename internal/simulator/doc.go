// Package simulator is an in-memory irrigation controller that speaks the
// same HTTP API as the real one. `sprinkler simulate` serves it for
// development, and the client packages run their integration tests against
// it through httptest.
//
// Collections (GET /api/schedules, GET /api/pins) carry a content-derived
// ETag and honour If-None-Match. Errors use a {"detail": "..."} body.
// Pin run timers are evaluated against the injected clock on every read.
package simulator

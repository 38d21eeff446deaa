// Package api is the HTTP transport for the irrigation controller.
//
// # Endpoints
//
// An Endpoint is an immutable description of one call: path, method, headers,
// optional JSON body, a fallback-to-empty-body flag and an optional cache
// policy override. The domain client builds endpoints; Transport executes them.
//
// # Request Handling
//
// Transport.Do:
//   - joins the base URL and endpoint path with a single slash
//   - encodes the body as JSON and sets Content-Type/Accept unless supplied
//   - attaches User-Agent and a per-call X-Request-ID
//   - retries unreachable and 5xx failures, waiting 0.5s then doubling, two
//     retries by default (cenkalti/backoff)
//   - resends once without a body when a fallback endpoint gets 400 or 415
//   - revalidates cached GETs with If-None-Match/If-Modified-Since and serves
//     the cached body on 304
//   - falls back to the last good GET body when the controller cannot answer
//
// Requests are sequential per call and pass through a token-bucket limiter so a
// small controller is not flooded by a busy dashboard.
//
// # Error Handling
//
// Every failure is an *Error with a Kind:
//
//   - KindInvalidURL: the base URL could not be parsed
//   - KindUnreachable: timeouts, DNS, refused or dropped connections, TLS failures
//   - KindRequestFailed: non-2xx status, with the controller's problem message
//   - KindDecodingFailed: the body was not the expected JSON (never retried)
//   - KindInvalidResponse: anything else
//
// Use errors.Is with the Err* sentinels, or UserMessage for display text.
//
// # Cache
//
// Successful GET bodies are kept in a bounded LRU keyed by method, URL, Accept
// and Authorization. Entries are immutable once stored; a mutex guards the
// LRU itself.
package api

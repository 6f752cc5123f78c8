// Package server provides the HTTP API: routing, middleware, handlers and the server lifecycle.
//
// # Router
//
// [NewRouter] builds a chi router. Every [Handler] registers its routes under the configured
// prefix (default /api). Prometheus metrics are served at /metrics, outside the prefix.
//
// [Middleware] wraps handlers in the order it is added: request id, real ip, request logging,
// metrics, panic recovery, CORS and JSON content negotiation.
//
// # Handlers
//
//   - [SessionHandler] : per-session playlists, current playlist pointer and health check
//   - [GlobalHandler] : the shared global session
//   - [FeedHandler] : RSS/Atom normalization
//
// # Responses
//
// Every response is a JSON object with a success flag. Failures carry an error message and a
// status chosen from the error: bad request, conflict and forbidden map to 400, not found to
// 404 and anything else to 500.
//
// Request bodies that are not valid JSON are treated as an empty object.
package server

// Package server implements the record lookup service: a TCP listener that hands each accepted
// connection to its own handler, and a small HTTP status surface.
//
// # Listener/Dispatcher
//
// [Server.Listen] binds the configured address; a bind failure is returned to the caller, which treats it
// as fatal. [Server.Serve] accepts in a loop and submits one handler per connection to a bounded
// [ants.Pool]. When every worker is busy, submission blocks, so accept stops pulling new connections
// until a handler finishes. A failed accept is logged and the loop continues; cancelling the context
// closes the listener and ends the loop.
//
// # Connection Handler
//
// Each handler owns its connection from accept to close and moves through
//
//	Accepted → Reading → Querying → Responding → Closed
//
// with Failed reachable from any phase. Read, query and write each run under their own deadline.
// A malformed request continues with empty search terms, and a failed query is answered with an empty
// result set flagged query_failed. A read failure gets a best-effort connection_error frame. However a
// handler ends, its connection is closed exactly once.
//
// # Status Endpoint
//
// [StatusHandler] serves /healthz and /stats (JSON counters from [Stats]) through [BasicRouter], so
// operators can see accepted, served, failed and in-flight connections.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
package server

// Package tasks runs many availability lookups against a lookup server with bounded concurrency.
//
// # Batch Lookups
//
// [BatchLookup] fans a list of [models.Request] values out to a fixed number of workers. Each lookup
// waits on a shared [rate.Limiter] before it is sent, so a batch never exceeds the configured request
// rate however many workers are running. Results come back in input order, one [BatchResult] per
// request, with the response or the error that prevented one.
//
// # Progress Reporting
//
// Progress is reported on an optional channel of [ProgressUpdate] values. Sends never block: a full
// channel drops the update.
//
// # Input
//
// [ReadRequests] parses "artist,city" CSV lines into requests. A header line and "#" comments are
// skipped.
package tasks

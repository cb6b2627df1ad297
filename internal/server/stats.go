package server

import "sync/atomic"

// Stats counts connection outcomes. All methods are safe for concurrent use.
type Stats struct {
	accepted     atomic.Int64
	served       atomic.Int64
	failed       atomic.Int64
	malformed    atomic.Int64
	queryFailed  atomic.Int64
	acceptErrors atomic.Int64
	active       atomic.Int64
}

// StatsSnapshot is a point-in-time copy of [Stats].
type StatsSnapshot struct {
	Accepted     int64 `json:"accepted"`
	Served       int64 `json:"served"`
	Failed       int64 `json:"failed"`
	Malformed    int64 `json:"malformed"`
	QueryFailed  int64 `json:"query_failed"`
	AcceptErrors int64 `json:"accept_errors"`
	Active       int64 `json:"active"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Accepted:     s.accepted.Load(),
		Served:       s.served.Load(),
		Failed:       s.failed.Load(),
		Malformed:    s.malformed.Load(),
		QueryFailed:  s.queryFailed.Load(),
		AcceptErrors: s.acceptErrors.Load(),
		Active:       s.active.Load(),
	}
}

package tasks

import (
	"fmt"

	"github.com/desertthunder/rsx/internal/protocol"
)

// ProgressUpdate represents a progress event during a batch run.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data; a [BatchResult] for lookups
}

// Operation phase enumeration
type Phase int

const (
	PhaseLoadRequests Phase = iota
	PhaseLookupRequests
)

func (p Phase) String() string {
	switch p {
	case PhaseLoadRequests:
		return "load_requests"
	case PhaseLookupRequests:
		return "lookup_requests"
	default:
		return ""
	}
}

func loadedRequestsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseLoadRequests,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d requests", total),
	}
}

func lookupUpdate(step, total int, res BatchResult) ProgressUpdate {
	var msg string
	switch {
	case res.Err != nil:
		msg = fmt.Sprintf("%s in %s: %v", res.Request.ArtistLastName, res.Request.RecordShopCity, res.Err)
	case res.Response.Status != protocol.StatusOK:
		msg = fmt.Sprintf("%s in %s: %s", res.Request.ArtistLastName, res.Request.RecordShopCity, res.Response.Status)
	default:
		msg = fmt.Sprintf("%s in %s: %d records", res.Request.ArtistLastName, res.Request.RecordShopCity, len(res.Response.Rows))
	}

	return ProgressUpdate{
		Phase:   PhaseLookupRequests,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

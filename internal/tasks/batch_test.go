package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/protocol"
	"github.com/desertthunder/rsx/internal/shared"
)

func makeRequests(n int) []models.Request {
	reqs := make([]models.Request, n)
	for i := range reqs {
		reqs[i] = models.Request{ArtistLastName: fmt.Sprintf("artist-%d", i), RecordShopCity: "London"}
	}
	return reqs
}

// echoLookup answers each request with one row titled after the artist.
func echoLookup(ctx context.Context, req models.Request) (*protocol.Response, error) {
	rows := models.ResultSet{{Title: req.ArtistLastName, NumCopies: "1"}}
	return protocol.NewResponse(protocol.StatusOK, rows), nil
}

func TestBatchLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("results are in input order", func(t *testing.T) {
		reqs := makeRequests(20)
		lookup := func(ctx context.Context, req models.Request) (*protocol.Response, error) {
			time.Sleep(time.Duration(len(req.ArtistLastName)%3) * time.Millisecond)
			return echoLookup(ctx, req)
		}

		run, err := BatchLookup(ctx, nil, lookup, reqs, BatchOpts{Workers: 5})
		if err != nil {
			t.Fatalf("BatchLookup() error = %v", err)
		}
		if len(run.Results) != len(reqs) {
			t.Fatalf("expected %d results, got %d", len(reqs), len(run.Results))
		}
		for i, res := range run.Results {
			if res.Index != i || res.Request != reqs[i] {
				t.Errorf("result %d = %+v, want request %+v", i, res, reqs[i])
			}
			if !res.OK() || res.Response.Rows[0].Title != reqs[i].ArtistLastName {
				t.Errorf("result %d has wrong response %+v", i, res.Response)
			}
		}
		if run.Succeeded != 20 || run.Failed != 0 || run.ByStatus[protocol.StatusOK] != 20 {
			t.Errorf("unexpected counts %+v", run)
		}
	})

	t.Run("workers bound concurrency", func(t *testing.T) {
		var inFlight, peak atomic.Int32
		lookup := func(ctx context.Context, req models.Request) (*protocol.Response, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return echoLookup(ctx, req)
		}

		if _, err := BatchLookup(ctx, nil, lookup, makeRequests(30), BatchOpts{Workers: 3}); err != nil {
			t.Fatalf("BatchLookup() error = %v", err)
		}
		if got := peak.Load(); got > 3 {
			t.Errorf("peak concurrency = %d, want <= 3", got)
		}
	})

	t.Run("rate limit spaces lookups", func(t *testing.T) {
		start := time.Now()
		if _, err := BatchLookup(ctx, nil, echoLookup, makeRequests(5), BatchOpts{Workers: 5, Rate: 50}); err != nil {
			t.Fatalf("BatchLookup() error = %v", err)
		}
		// burst of 1 at 50/s: four waits of 20ms
		if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
			t.Errorf("rate limit not applied, took %v", elapsed)
		}
	})

	t.Run("failures are recorded per request", func(t *testing.T) {
		lookup := func(ctx context.Context, req models.Request) (*protocol.Response, error) {
			switch req.ArtistLastName {
			case "artist-1":
				return nil, fmt.Errorf("%w: refused", shared.ErrConnection)
			case "artist-2":
				return protocol.ErrorResponse(protocol.StatusQueryFailed, shared.ErrQueryFailed), nil
			}
			return echoLookup(ctx, req)
		}

		run, err := BatchLookup(ctx, nil, lookup, makeRequests(4), BatchOpts{})
		if err != nil {
			t.Fatalf("BatchLookup() error = %v", err)
		}
		if run.Succeeded != 2 || run.Failed != 2 {
			t.Errorf("succeeded=%d failed=%d, want 2/2", run.Succeeded, run.Failed)
		}
		if !errors.Is(run.Results[1].Err, shared.ErrConnection) {
			t.Errorf("result 1 error = %v", run.Results[1].Err)
		}
		if run.ByStatus[protocol.StatusQueryFailed] != 1 {
			t.Errorf("by status = %v", run.ByStatus)
		}
	})

	t.Run("cancellation marks unfinished requests", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		var calls atomic.Int32
		lookup := func(ctx context.Context, req models.Request) (*protocol.Response, error) {
			if calls.Add(1) == 2 {
				cancel()
			}
			return echoLookup(ctx, req)
		}

		run, err := BatchLookup(cctx, nil, lookup, makeRequests(10), BatchOpts{Workers: 1})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(run.Results) != 10 {
			t.Fatalf("expected 10 results, got %d", len(run.Results))
		}
		last := run.Results[9]
		if !errors.Is(last.Err, context.Canceled) || last.Request.ArtistLastName != "artist-9" {
			t.Errorf("unfinished result = %+v", last)
		}
		if run.Succeeded+run.Failed != 10 {
			t.Errorf("counts do not cover the batch: %+v", run)
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		prog := make(chan ProgressUpdate, 16)
		if _, err := BatchLookup(ctx, prog, echoLookup, makeRequests(3), BatchOpts{Workers: 1}); err != nil {
			t.Fatalf("BatchLookup() error = %v", err)
		}
		close(prog)

		var updates []ProgressUpdate
		for u := range prog {
			updates = append(updates, u)
		}
		if len(updates) != 4 {
			t.Fatalf("expected 4 updates, got %d", len(updates))
		}
		if updates[0].Phase != PhaseLoadRequests || updates[0].Message != "Loaded 3 requests" {
			t.Errorf("first update = %+v", updates[0])
		}
		last := updates[3]
		if last.Phase != PhaseLookupRequests || last.Step != 3 || last.Total != 3 {
			t.Errorf("last update = %+v", last)
		}
		if _, ok := last.Data.(BatchResult); !ok {
			t.Errorf("lookup update data = %T, want BatchResult", last.Data)
		}
	})

	t.Run("full progress channel does not block", func(t *testing.T) {
		prog := make(chan ProgressUpdate)
		done := make(chan struct{})
		go func() {
			defer close(done)
			BatchLookup(ctx, prog, echoLookup, makeRequests(5), BatchOpts{})
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("BatchLookup blocked on progress channel")
		}
	})

	t.Run("requires a lookup function", func(t *testing.T) {
		if _, err := BatchLookup(ctx, nil, nil, makeRequests(1), BatchOpts{}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		run, err := BatchLookup(ctx, nil, echoLookup, nil, BatchOpts{})
		if err != nil {
			t.Fatalf("BatchLookup() error = %v", err)
		}
		if len(run.Results) != 0 || run.Succeeded != 0 {
			t.Errorf("unexpected result %+v", run)
		}
	})
}

func TestBatchOpts_withDefaults(t *testing.T) {
	tt := []struct {
		name string
		in   BatchOpts
		want BatchOpts
	}{
		{"zero", BatchOpts{}, BatchOpts{Workers: DefaultWorkers}},
		{"capped", BatchOpts{Workers: 100, Rate: 5}, BatchOpts{Workers: MaxWorkers, Rate: 5}},
		{"negative rate", BatchOpts{Workers: 2, Rate: -1}, BatchOpts{Workers: 2}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.withDefaults(); got != tc.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestLookupUpdate(t *testing.T) {
	req := models.Request{ArtistLastName: "Smith", RecordShopCity: "London"}

	tt := []struct {
		res  BatchResult
		want string
	}{
		{BatchResult{Request: req, Response: protocol.NewResponse(protocol.StatusOK, models.ResultSet{{}, {}})}, "Smith in London: 2 records"},
		{BatchResult{Request: req, Response: protocol.NewResponse(protocol.StatusMalformedRequest, nil)}, "Smith in London: malformed_request"},
		{BatchResult{Request: req, Err: errors.New("refused")}, "Smith in London: refused"},
	}
	for _, tc := range tt {
		got := lookupUpdate(1, 1, tc.res).Message
		if got != tc.want {
			t.Errorf("message = %q, want %q", got, tc.want)
		}
	}
}

func TestPhase_String(t *testing.T) {
	if PhaseLoadRequests.String() != "load_requests" || PhaseLookupRequests.String() != "lookup_requests" || Phase(9).String() != "" {
		t.Error("unexpected phase names")
	}
}

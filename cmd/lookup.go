package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/desertthunder/rsx/internal/client"
	"github.com/desertthunder/rsx/internal/formatter"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/protocol"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/desertthunder/rsx/internal/tasks"
	"github.com/desertthunder/rsx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Lookup sends one request to a running server and prints the result.
//
// A response with a failure status is printed and then returned as an error.
func (r *Runner) Lookup(ctx context.Context, cmd *cli.Command) error {
	req := models.Request{
		ArtistLastName: cmd.StringArg("artist"),
		RecordShopCity: cmd.StringArg("city"),
	}
	if req.ArtistLastName == "" || req.RecordShopCity == "" {
		return fmt.Errorf("%w: artist last name and city are required", shared.ErrMissingArgument)
	}

	c, err := r.newClient(cmd)
	if err != nil {
		return err
	}

	r.logger.Debug("sending request", "addr", c.Addr(), "artist", req.ArtistLastName, "city", req.RecordShopCity)
	resp, err := c.Lookup(ctx, req)
	if err != nil {
		return err
	}

	var data []byte
	switch {
	case cmd.Bool("json"):
		if data, err = formatter.ExportToJSON(resp); err != nil {
			return err
		}
	case cmd.Bool("csv"):
		if data, err = formatter.ExportToCSV(resp.Rows); err != nil {
			return err
		}
	case cmd.Bool("text"):
		data = formatter.ExportToText(req, resp)
	default:
		styles := ui.Styles()
		r.writePlain("%s\n", styles.Title("%d records by %s in %s", len(resp.Rows), req.ArtistLastName, req.RecordShopCity))
		data = []byte(formatter.RenderTable(resp.Rows))
	}

	if err := r.emit(cmd, data); err != nil {
		return err
	}
	return statusError(resp)
}

// Batch runs a lookup for every line of a CSV file and prints a summary or a full export.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	reqs, err := tasks.LoadRequests(cmd.String("file"))
	if err != nil {
		return err
	}

	c, err := r.newClient(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := tasks.BatchOpts{
		Workers: int(cmd.Int("workers")),
		Rate:    cmd.Float("rate"),
	}

	prog := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range prog {
			r.logger.Info(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()

	run, runErr := tasks.BatchLookup(ctx, prog, c.Lookup, reqs, opts)
	close(prog)
	wg.Wait()
	if run == nil {
		return runErr
	}

	var data []byte
	switch {
	case cmd.Bool("json"):
		if data, err = formatter.ExportBatchJSON(run); err != nil {
			return err
		}
	case cmd.Bool("csv"):
		if data, err = formatter.ExportBatchCSV(run); err != nil {
			return err
		}
	default:
		data = []byte(formatter.RenderBatchSummary(run))
	}

	if err := r.emit(cmd, data); err != nil {
		return err
	}

	styles := ui.Styles()
	r.writePlainln("%s", styles.Help("%d succeeded, %d failed in %s", run.Succeeded, run.Failed, run.Elapsed.Round(time.Millisecond)))
	return runErr
}

// newClient builds a lookup client from --addr and --timeout, falling back to the configured listener.
func (r *Runner) newClient(cmd *cli.Command) (*client.Client, error) {
	addr := cmd.String("addr")
	if addr == "" {
		config, err := r.loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		addr = config.Server.Addr()
	}
	return client.New(addr, cmd.Duration("timeout")), nil
}

// emit writes data to --output when given, and to the runner's output otherwise.
func (r *Runner) emit(cmd *cli.Command, data []byte) error {
	path := cmd.String("output")
	if path == "" {
		return r.writeBytes(data)
	}

	if err := formatter.WriteExport(path, data); err != nil {
		return err
	}
	r.logger.Info("output written", "path", path)
	return nil
}

// statusError maps a failure status onto its sentinel error.
func statusError(resp *protocol.Response) error {
	switch resp.Status {
	case protocol.StatusOK:
		return nil
	case protocol.StatusMalformedRequest:
		return fmt.Errorf("%w: %s", shared.ErrMalformedRequest, resp.Error)
	case protocol.StatusQueryFailed:
		return fmt.Errorf("%w: %s", shared.ErrQueryFailed, resp.Error)
	default:
		return fmt.Errorf("%w: %s", shared.ErrConnection, resp.Error)
	}
}

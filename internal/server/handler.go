package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/protocol"
	"github.com/desertthunder/rsx/internal/shared"
)

// connHandler owns one accepted connection: read one request, query, write one response, close.
type connHandler struct {
	conn     net.Conn
	executor Executor
	opts     Options
	stats    *Stats
	logger   *log.Logger

	state     State
	closeOnce sync.Once
}

func newConnHandler(conn net.Conn, s *Server) *connHandler {
	return &connHandler{
		conn:     conn,
		executor: s.executor,
		opts:     s.opts,
		stats:    s.stats,
		logger:   shared.WithLogger(s.logger, "conn", shared.GenerateID(), "remote", conn.RemoteAddr().String()),
		state:    StateAccepted,
	}
}

// serve runs the handler to completion. The connection is closed on every path, panics included.
func (h *connHandler) serve(ctx context.Context) {
	h.stats.active.Add(1)
	defer h.stats.active.Add(-1)
	defer h.close()

	h.transition(StateReading)
	status := protocol.StatusOK
	req, err := h.readRequest()
	if err != nil {
		if !errors.Is(err, shared.ErrMalformedRequest) {
			h.fail(err, true)
			return
		}
		h.stats.malformed.Add(1)
		h.logger.Warn("incorrect message format", "error", err)
		status = protocol.StatusMalformedRequest
	}
	h.logger.Info("request retrieved", "artist", req.ArtistLastName, "city", req.RecordShopCity)

	h.transition(StateQuerying)
	rows, err := h.query(ctx, req)
	if err != nil {
		h.stats.queryFailed.Add(1)
		h.logger.Error("unable to provide service", "error", err)
		rows = models.EmptyResultSet()
		status = protocol.StatusQueryFailed
	}

	resp := protocol.NewResponse(status, rows)
	switch status {
	case protocol.StatusMalformedRequest:
		resp.Error = shared.ErrMalformedRequest.Error()
	case protocol.StatusQueryFailed:
		resp.Error = shared.ErrQueryFailed.Error()
	}

	h.transition(StateResponding)
	if err := h.writeResponse(resp); err != nil {
		h.fail(err, false)
		return
	}

	h.stats.served.Add(1)
	h.logger.Info("service outcome returned", "status", status, "rows", len(rows))
}

func (h *connHandler) readRequest() (models.Request, error) {
	if h.opts.ReadTimeout > 0 {
		if err := h.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout)); err != nil {
			return models.Request{}, err
		}
	}

	dec := protocol.Decoder{MaxBytes: h.opts.MaxRequestBytes}
	return dec.Decode(h.conn)
}

func (h *connHandler) query(ctx context.Context, req models.Request) (models.ResultSet, error) {
	if h.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.QueryTimeout)
		defer cancel()
	}

	rows, err := h.executor.FindAvailability(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: query exceeded %s: %w", shared.ErrTimeout, h.opts.QueryTimeout, err)
		}
		return nil, err
	}
	if rows == nil {
		rows = models.EmptyResultSet()
	}
	return rows, nil
}

func (h *connHandler) writeResponse(resp *protocol.Response) error {
	if h.opts.WriteTimeout > 0 {
		if err := h.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout)); err != nil {
			return err
		}
	}
	return protocol.WriteResponse(h.conn, resp)
}

// fail moves the handler to Failed. When report is set, a connection_error frame is written on a
// short deadline and any error from that write is ignored.
func (h *connHandler) fail(err error, report bool) {
	from := h.state
	h.transition(StateFailed)
	h.stats.failed.Add(1)

	if errors.Is(err, os.ErrDeadlineExceeded) {
		h.logger.Warn("deadline exceeded", "phase", from, "error", err)
	} else {
		h.logger.Error("connection failed", "phase", from, "error", err)
	}

	if !report {
		return
	}

	timeout := h.opts.WriteTimeout
	if timeout <= 0 || timeout > reportErrTimeout {
		timeout = reportErrTimeout
	}
	_ = h.conn.SetWriteDeadline(time.Now().Add(timeout))
	if werr := protocol.WriteResponse(h.conn, protocol.ErrorResponse(protocol.StatusConnectionError, err)); werr != nil {
		h.logger.Debug("could not report failure", "error", werr)
	}
}

// close closes the connection once, however many paths reach it.
func (h *connHandler) close() {
	h.closeOnce.Do(func() {
		if err := h.conn.Close(); err != nil {
			h.logger.Debug("close failed", "error", err)
		}
		h.transition(StateClosed)
		h.logger.Info("connection closed")
	})
}

func (h *connHandler) transition(to State) {
	h.logger.Debug("state transition", "from", h.state, "to", to)
	h.state = to
}

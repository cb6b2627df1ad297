// Package client implements the caller side of the lookup protocol: one request frame out, one response
// frame back, one connection per lookup.
package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/protocol"
	"github.com/desertthunder/rsx/internal/shared"
)

const defaultTimeout = 30 * time.Second

// Client looks up record availability on a lookup server.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  *net.Dialer
}

// New creates a Client for the server at addr.
//
// timeout bounds each whole lookup (dial, write, read) and defaults to 30s.
func New(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		addr:    addr,
		timeout: timeout,
		dialer:  &net.Dialer{},
	}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Lookup sends req on a new connection and returns the server's response.
//
// The response status is returned as-is; a query_failed response is not an error here.
func (c *Client) Lookup(ctx context.Context, req models.Request) (*protocol.Response, error) {
	frame, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %w", shared.ErrConnection, c.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("%w: failed to set deadline: %w", shared.ErrConnection, err)
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := conn.Write(frame); err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %w", shared.ErrConnection, err)
	}

	return protocol.ReadResponse(conn)
}

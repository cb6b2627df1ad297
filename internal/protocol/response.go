package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/valyala/bytebufferpool"
)

const (
	// Magic opens every response frame.
	Magic = "RSX"
	// Version is the response frame version written by this package.
	Version byte = 1
	// MaxPayloadSize bounds the JSON payload of a response frame.
	MaxPayloadSize = 16 << 20

	headerSize = len(Magic) + 1 + 4
)

// Status reports how the server handled a request.
type Status string

const (
	StatusOK               Status = "ok"
	StatusMalformedRequest Status = "malformed_request"
	StatusQueryFailed      Status = "query_failed"
	StatusConnectionError  Status = "connection_error"
)

// Response is the payload of a response frame.
type Response struct {
	Version int              `json:"version"`
	Status  Status           `json:"status"`
	Error   string           `json:"error,omitempty"`
	Columns []string         `json:"columns"`
	Rows    models.ResultSet `json:"rows"`
}

// NewResponse builds a response carrying rows with the standard column list.
func NewResponse(status Status, rows models.ResultSet) *Response {
	if rows == nil {
		rows = models.EmptyResultSet()
	}
	return &Response{
		Version: int(Version),
		Status:  status,
		Columns: models.Columns(),
		Rows:    rows,
	}
}

// ErrorResponse builds an empty response flagged with status and the error text.
func ErrorResponse(status Status, err error) *Response {
	resp := NewResponse(status, nil)
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// WriteResponse encodes resp as one frame and writes it to w in a single write.
//
// Writers exposing Flush (such as [bufio.Writer]) are flushed. Failures wrap [shared.ErrSerialization].
func WriteResponse(w io.Writer, resp *Response) error {
	out := *resp
	if out.Rows == nil {
		out.Rows = models.EmptyResultSet()
	}
	if out.Columns == nil {
		out.Columns = models.Columns()
	}
	out.Version = int(Version)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	var header [headerSize]byte
	copy(header[:], Magic)
	header[len(Magic)] = Version
	buf.Write(header[:])

	if err := json.NewEncoder(buf).Encode(&out); err != nil {
		return fmt.Errorf("%w: failed to encode response: %w", shared.ErrSerialization, err)
	}

	size := buf.Len() - headerSize
	if size > MaxPayloadSize {
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", shared.ErrSerialization, size, MaxPayloadSize)
	}
	binary.BigEndian.PutUint32(buf.B[len(Magic)+1:headerSize], uint32(size))

	if _, err := w.Write(buf.B); err != nil {
		return fmt.Errorf("%w: failed to write response: %w", shared.ErrSerialization, err)
	}

	if f, ok := w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("%w: failed to flush response: %w", shared.ErrSerialization, err)
		}
	}

	return nil
}

// ReadResponse reads and validates one response frame from r.
func ReadResponse(r io.Reader) (*Response, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: failed to read response header: %w", shared.ErrConnection, err)
	}

	if string(header[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad frame magic %q", shared.ErrSerialization, header[:len(Magic)])
	}
	if v := header[len(Magic)]; v != Version {
		return nil, fmt.Errorf("%w: %d", shared.ErrProtocolVersion, v)
	}

	size := binary.BigEndian.Uint32(header[len(Magic)+1:])
	if size > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds %d", shared.ErrSerialization, size, MaxPayloadSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: failed to read response payload: %w", shared.ErrConnection, err)
	}

	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", shared.ErrSerialization, err)
	}

	if !slices.Equal(resp.Columns, models.Columns()) {
		return nil, fmt.Errorf("%w: unexpected columns %v", shared.ErrSerialization, resp.Columns)
	}
	if resp.Rows == nil {
		resp.Rows = models.EmptyResultSet()
	}

	return &resp, nil
}

package protocol

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
	tu "github.com/desertthunder/rsx/internal/testing"
)

func TestWriteResponse(t *testing.T) {
	t.Run("rows survive a round trip", func(t *testing.T) {
		rows := models.ResultSet{
			{Title: "Abbey", Label: "Apple", Genre: "Rock", RRP: "12.99", NumCopies: "2"},
			{Title: "Help", Label: "Parlophone", Genre: "Pop", RRP: "9.50", NumCopies: "1"},
		}

		var buf bytes.Buffer
		if err := WriteResponse(&buf, NewResponse(StatusOK, rows)); err != nil {
			t.Fatalf("WriteResponse() error = %v", err)
		}

		got, err := ReadResponse(&buf)
		if err != nil {
			t.Fatalf("ReadResponse() error = %v", err)
		}
		if got.Status != StatusOK {
			t.Errorf("status = %q, want ok", got.Status)
		}
		if got.Version != int(Version) {
			t.Errorf("version = %d, want %d", got.Version, Version)
		}
		if len(got.Rows) != 2 || got.Rows[0] != rows[0] || got.Rows[1] != rows[1] {
			t.Errorf("rows = %+v, want %+v", got.Rows, rows)
		}
		if buf.Len() != 0 {
			t.Errorf("expected the whole frame to be consumed, %d bytes left", buf.Len())
		}
	})

	t.Run("nil rows encode as an empty array", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteResponse(&buf, &Response{Status: StatusQueryFailed}); err != nil {
			t.Fatalf("WriteResponse() error = %v", err)
		}

		payload := buf.String()[headerSize:]
		if !strings.Contains(payload, `"rows":[]`) {
			t.Errorf("payload should contain an empty rows array: %s", payload)
		}
		if !strings.Contains(payload, `"columns":["title","label","genre","rrp","num_copies"]`) {
			t.Errorf("payload should list the columns in order: %s", payload)
		}
	})

	t.Run("header carries magic, version and length", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteResponse(&buf, NewResponse(StatusOK, nil)); err != nil {
			t.Fatalf("WriteResponse() error = %v", err)
		}

		b := buf.Bytes()
		if string(b[:3]) != Magic {
			t.Errorf("magic = %q", b[:3])
		}
		if b[3] != Version {
			t.Errorf("version byte = %d", b[3])
		}
		if n := binary.BigEndian.Uint32(b[4:8]); int(n) != len(b)-headerSize {
			t.Errorf("length = %d, want %d", n, len(b)-headerSize)
		}
	})

	t.Run("buffered writers are flushed", func(t *testing.T) {
		var buf bytes.Buffer
		bw := bufio.NewWriter(&buf)
		if err := WriteResponse(bw, NewResponse(StatusOK, nil)); err != nil {
			t.Fatalf("WriteResponse() error = %v", err)
		}
		if buf.Len() == 0 {
			t.Error("expected the frame to reach the underlying writer")
		}
	})

	t.Run("write failure", func(t *testing.T) {
		err := WriteResponse(&tu.FWriter{}, NewResponse(StatusOK, nil))
		if !errors.Is(err, shared.ErrSerialization) {
			t.Errorf("expected ErrSerialization, got %v", err)
		}
	})

	t.Run("error responses carry the message", func(t *testing.T) {
		var buf bytes.Buffer
		resp := ErrorResponse(StatusConnectionError, errors.New("read timeout"))
		if err := WriteResponse(&buf, resp); err != nil {
			t.Fatalf("WriteResponse() error = %v", err)
		}

		got, err := ReadResponse(&buf)
		if err != nil {
			t.Fatalf("ReadResponse() error = %v", err)
		}
		if got.Status != StatusConnectionError || got.Error != "read timeout" {
			t.Errorf("unexpected response %+v", got)
		}
		if len(got.Rows) != 0 {
			t.Errorf("expected no rows, got %d", len(got.Rows))
		}
	})
}

func TestReadResponse_Errors(t *testing.T) {
	frame := func(magic string, version byte, payload string) []byte {
		b := []byte(magic)
		b = append(b, version)
		b = binary.BigEndian.AppendUint32(b, uint32(len(payload)))
		return append(b, payload...)
	}
	validPayload := `{"version":1,"status":"ok","columns":["title","label","genre","rrp","num_copies"],"rows":[]}`

	tt := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{
			name:    "short header",
			input:   []byte("RS"),
			wantErr: shared.ErrConnection,
		},
		{
			name:    "bad magic",
			input:   frame("XYZ", Version, validPayload),
			wantErr: shared.ErrSerialization,
		},
		{
			name:    "unknown version",
			input:   frame(Magic, 9, validPayload),
			wantErr: shared.ErrProtocolVersion,
		},
		{
			name:    "truncated payload",
			input:   frame(Magic, Version, validPayload)[:headerSize+5],
			wantErr: shared.ErrConnection,
		},
		{
			name:    "payload is not json",
			input:   frame(Magic, Version, "not json"),
			wantErr: shared.ErrSerialization,
		},
		{
			name:    "wrong columns",
			input:   frame(Magic, Version, `{"version":1,"status":"ok","columns":["title"],"rows":[]}`),
			wantErr: shared.ErrSerialization,
		},
		{
			name:    "oversized payload",
			input:   binary.BigEndian.AppendUint32([]byte{'R', 'S', 'X', Version}, MaxPayloadSize+1),
			wantErr: shared.ErrSerialization,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadResponse(bytes.NewReader(tc.input))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ReadResponse() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
)

const (
	// Terminator ends a request frame.
	Terminator byte = '#'
	// Separator splits the two request fields.
	Separator = ";"
)

// Decoder reads request frames from a byte stream.
type Decoder struct {
	// MaxBytes bounds the frame length excluding the terminator. Zero means unbounded.
	MaxBytes int
}

// DecodeRequest reads one request frame from r without a size limit.
func DecodeRequest(r io.Reader) (models.Request, error) {
	return Decoder{}.Decode(r)
}

// Decode reads bytes from r up to and including the terminator and parses them into a [models.Request].
//
// I/O failures, including the stream ending before a terminator, wrap [shared.ErrConnection].
// Frames over MaxBytes wrap both [shared.ErrMalformedRequest] and [shared.ErrRequestTooLarge].
func (d Decoder) Decode(r io.Reader) (models.Request, error) {
	src := r
	if d.MaxBytes > 0 {
		src = io.LimitReader(r, int64(d.MaxBytes)+1)
	}

	frame, err := bufio.NewReader(src).ReadBytes(Terminator)
	if err != nil {
		if errors.Is(err, io.EOF) {
			if d.MaxBytes > 0 && len(frame) > d.MaxBytes {
				return models.Request{}, fmt.Errorf("%w: %w: limit is %d bytes", shared.ErrMalformedRequest, shared.ErrRequestTooLarge, d.MaxBytes)
			}
			return models.Request{}, fmt.Errorf("%w: stream ended after %d bytes without terminator: %w", shared.ErrConnection, len(frame), io.ErrUnexpectedEOF)
		}
		return models.Request{}, fmt.Errorf("%w: failed to read request: %w", shared.ErrConnection, err)
	}

	return ParseRequest(string(frame[:len(frame)-1]))
}

// ParseRequest splits the text of a frame (terminator removed) into its two fields.
//
// Any other field count yields an empty request and [shared.ErrMalformedRequest].
func ParseRequest(text string) (models.Request, error) {
	text = strings.ToValidUTF8(text, "\uFFFD")

	fields := strings.Split(text, Separator)
	if len(fields) != 2 {
		return models.Request{}, fmt.Errorf("%w: expected 2 fields, got %d", shared.ErrMalformedRequest, len(fields))
	}

	return models.Request{
		ArtistLastName: fields[0],
		RecordShopCity: fields[1],
	}, nil
}

// EncodeRequest renders req as a request frame.
func EncodeRequest(req models.Request) ([]byte, error) {
	for _, v := range []string{req.ArtistLastName, req.RecordShopCity} {
		if strings.ContainsAny(v, Separator+string(Terminator)) {
			return nil, fmt.Errorf("%w: field %q contains a reserved delimiter", shared.ErrMalformedRequest, v)
		}
	}

	frame := make([]byte, 0, len(req.ArtistLastName)+len(req.RecordShopCity)+2)
	frame = append(frame, req.ArtistLastName...)
	frame = append(frame, Separator...)
	frame = append(frame, req.RecordShopCity...)
	frame = append(frame, Terminator)
	return frame, nil
}

// WriteRequest encodes req and writes it to w.
func WriteRequest(w io.Writer, req models.Request) error {
	frame, err := EncodeRequest(req)
	if err != nil {
		return err
	}

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("%w: failed to write request: %w", shared.ErrConnection, err)
	}
	return nil
}

package tasks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/protocol"
	"github.com/desertthunder/rsx/internal/shared"
)

// ReadRequests parses "artist,city" records from r.
//
// A first line of "artist,city" is treated as a header. Fields may not contain the request
// delimiters.
func ReadRequests(r io.Reader) ([]models.Request, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var reqs []models.Request
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
		}

		if first && strings.EqualFold(record[0], "artist") && strings.EqualFold(record[1], "city") {
			continue
		}

		req := models.Request{
			ArtistLastName: strings.TrimSpace(record[0]),
			RecordShopCity: strings.TrimSpace(record[1]),
		}
		if _, err := protocol.EncodeRequest(req); err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: %w", shared.ErrInvalidInput, line, err)
		}
		reqs = append(reqs, req)
	}

	return reqs, nil
}

// LoadRequests reads requests from the CSV file at path.
func LoadRequests(path string) ([]models.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open request file: %w", err)
	}
	defer f.Close()

	reqs, err := ReadRequests(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: %s contains no requests", shared.ErrInvalidInput, path)
	}
	return reqs, nil
}

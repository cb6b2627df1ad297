// package formatter renders lookup results as terminal tables, CSV, JSON, and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/protocol"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/desertthunder/rsx/internal/tasks"
	"github.com/desertthunder/rsx/internal/ui"
)

// RenderTable draws rows as a bordered table with the result column headers.
func RenderTable(rows models.ResultSet) string {
	styles := ui.Styles()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(models.Columns()...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header()
			}
			return styles.Cell()
		})

	for _, r := range rows {
		t.Row(r.Values()...)
	}
	return t.String()
}

// ExportToText converts a lookup response to a plain text summary followed by one line per row
func ExportToText(req models.Request, resp *protocol.Response) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Artist: %s\n", req.ArtistLastName)
	fmt.Fprintf(&buf, "City: %s\n", req.RecordShopCity)
	fmt.Fprintf(&buf, "Status: %s\n", resp.Status)
	if resp.Error != "" {
		fmt.Fprintf(&buf, "Error: %s\n", resp.Error)
	}
	fmt.Fprintf(&buf, "Records: %d\n\n", len(resp.Rows))

	for i, r := range resp.Rows {
		fmt.Fprintf(&buf, "%d. %s (%s, %s) %s x%s\n", i+1, r.Title, r.Label, r.Genre, r.RRP, r.NumCopies)
	}

	return buf.Bytes()
}

// ExportToCSV converts rows to CSV with columns: title, label, genre, rrp, num_copies
func ExportToCSV(rows models.ResultSet) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(models.Columns()); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range rows {
		if err := writer.Write(r.Values()); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the full response, status and columns included, as indented JSON
func ExportToJSON(resp *protocol.Response) ([]byte, error) {
	return shared.MarshalJSON(resp, true)
}

// ExportBatchCSV flattens a batch run to CSV with one line per result row.
//
// Each line leads with the request and outcome (artist, city, status, error). A request with no rows,
// or one that failed, still gets a single line with empty row columns.
func ExportBatchCSV(run *tasks.BatchRunResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := append([]string{"artist", "city", "status", "error"}, models.Columns()...)
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	empty := make([]string, len(models.Columns()))
	for _, res := range run.Results {
		status, errText := batchOutcome(res)
		lead := []string{res.Request.ArtistLastName, res.Request.RecordShopCity, status, errText}

		if res.Response == nil || len(res.Response.Rows) == 0 {
			if err := writer.Write(append(lead, empty...)); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
			continue
		}
		for _, r := range res.Response.Rows {
			if err := writer.Write(append(append([]string(nil), lead...), r.Values()...)); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

type batchEntry struct {
	Artist   string           `json:"artist"`
	City     string           `json:"city"`
	Status   string           `json:"status"`
	Error    string           `json:"error,omitempty"`
	Duration string           `json:"duration"`
	Rows     models.ResultSet `json:"rows"`
}

type batchManifest struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	ByStatus  map[string]int `json:"by_status"`
	Elapsed   string         `json:"elapsed"`
	Results   []batchEntry   `json:"results"`
}

// ExportBatchJSON renders a batch run with its counts and every result as indented JSON
func ExportBatchJSON(run *tasks.BatchRunResult) ([]byte, error) {
	m := batchManifest{
		Total:     len(run.Results),
		Succeeded: run.Succeeded,
		Failed:    run.Failed,
		ByStatus:  make(map[string]int, len(run.ByStatus)),
		Elapsed:   run.Elapsed.String(),
		Results:   make([]batchEntry, 0, len(run.Results)),
	}
	for status, n := range run.ByStatus {
		m.ByStatus[string(status)] = n
	}

	for _, res := range run.Results {
		status, errText := batchOutcome(res)
		rows := models.EmptyResultSet()
		if res.Response != nil {
			rows = res.Response.Rows
		}
		m.Results = append(m.Results, batchEntry{
			Artist:   res.Request.ArtistLastName,
			City:     res.Request.RecordShopCity,
			Status:   status,
			Error:    errText,
			Duration: res.Duration.String(),
			Rows:     rows,
		})
	}

	return shared.MarshalJSON(m, true)
}

// RenderBatchSummary draws one table line per request with its status and row count.
func RenderBatchSummary(run *tasks.BatchRunResult) string {
	styles := ui.Styles()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("artist", "city", "status", "records").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header()
			}
			return styles.Cell()
		})

	for _, res := range run.Results {
		status, _ := batchOutcome(res)
		count := ""
		if res.Response != nil {
			count = strconv.Itoa(len(res.Response.Rows))
		}
		t.Row(res.Request.ArtistLastName, res.Request.RecordShopCity, status, count)
	}
	return t.String()
}

// WriteExport writes data to path, creating or truncating it.
func WriteExport(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("%w: output path is empty", shared.ErrMissingArgument)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// batchOutcome reports the status column for a result: the response status, or "error" when the
// lookup never produced a response.
func batchOutcome(res tasks.BatchResult) (status, errText string) {
	if res.Err != nil {
		return "error", res.Err.Error()
	}
	if res.Response == nil {
		return "error", ""
	}
	return string(res.Response.Status), res.Response.Error
}

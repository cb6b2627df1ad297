package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
)

// availabilityQuery lists the records by an artist surname stocked in a city, one row per distinct
// (title, label, genre, rrp) with the number of matching copies.
const availabilityQuery = `
	SELECT record.title, record.label, record.genre, record.rrp, COUNT(recordcopy.copy_id) AS num_copies
	FROM record
	INNER JOIN artist ON artist.artist_id = record.artist_id
	INNER JOIN recordcopy ON recordcopy.record_id = record.record_id
	INNER JOIN recordshop ON recordshop.recordshop_id = recordcopy.recordshop_id
	WHERE artist.last_name = ? AND recordshop.city = ?
	GROUP BY record.title, record.label, record.genre, record.rrp
`

// FindAvailability returns the records by req.ArtistLastName stocked in shops in req.RecordShopCity.
//
// No match yields an empty, non-nil result set. Any executor failure wraps [shared.ErrQueryFailed].
func (r *RecordRepository) FindAvailability(ctx context.Context, req models.Request) (models.ResultSet, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to acquire connection: %w", shared.ErrQueryFailed, err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, r.availabilityQuery, req.ArtistLastName, req.RecordShopCity)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query availability: %w", shared.ErrQueryFailed, err)
	}
	defer rows.Close()

	result := models.EmptyResultSet()
	for rows.Next() {
		row, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %w", shared.ErrQueryFailed, err)
	}

	return result, nil
}

// scanAvailability scans a row from [sql.Rows] into a [models.ResultRow]
func scanAvailability(rows *sql.Rows) (models.ResultRow, error) {
	var (
		title     string
		label     sql.NullString
		genre     sql.NullString
		rrp       sql.NullFloat64
		numCopies int64
	)

	if err := rows.Scan(&title, &label, &genre, &rrp, &numCopies); err != nil {
		return models.ResultRow{}, fmt.Errorf("%w: failed to scan availability row: %w", shared.ErrQueryFailed, err)
	}

	row := models.ResultRow{
		Title:     title,
		Label:     label.String,
		Genre:     genre.String,
		NumCopies: strconv.FormatInt(numCopies, 10),
	}
	if rrp.Valid {
		row.RRP = strconv.FormatFloat(rrp.Float64, 'f', 2, 64)
	}

	return row, nil
}

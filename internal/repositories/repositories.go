// package repositories provides persistence layer implementations for the record lookup service.
package repositories

import (
	"database/sql"

	"github.com/desertthunder/rsx/internal/shared"
)

// RecordRepository runs record availability queries and writes seed data.
type RecordRepository struct {
	db      *sql.DB
	dialect shared.Dialect

	availabilityQuery string
}

// NewRecordRepository creates a new RecordRepository with the given database connection and dialect.
func NewRecordRepository(db *sql.DB, dialect shared.Dialect) *RecordRepository {
	return &RecordRepository{
		db:                db,
		dialect:           dialect,
		availabilityQuery: dialect.Rebind(availabilityQuery),
	}
}

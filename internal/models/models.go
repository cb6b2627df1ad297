// package models defines the data model for the record lookup service
package models

// Column names of a [ResultRow], in wire order.
const (
	ColumnTitle     = "title"
	ColumnLabel     = "label"
	ColumnGenre     = "genre"
	ColumnRRP       = "rrp"
	ColumnNumCopies = "num_copies"
)

// Columns returns the fixed, ordered column list of every result set.
func Columns() []string {
	return []string{ColumnTitle, ColumnLabel, ColumnGenre, ColumnRRP, ColumnNumCopies}
}

// Request holds the two opaque search terms of one lookup.
type Request struct {
	ArtistLastName string `json:"artist_last_name"`
	RecordShopCity string `json:"record_shop_city"`
}

// IsEmpty reports whether both search terms are empty, as after a malformed frame.
func (r Request) IsEmpty() bool {
	return r.ArtistLastName == "" && r.RecordShopCity == ""
}

// ResultRow is one distinct record (by title, label, genre, rrp) stocked at a matching shop.
//
// All fields are text: RRP is formatted with two decimals and NumCopies as a base-10 count.
type ResultRow struct {
	Title     string `json:"title"`
	Label     string `json:"label"`
	Genre     string `json:"genre"`
	RRP       string `json:"rrp"`
	NumCopies string `json:"num_copies"`
}

// Values returns the row's fields in [Columns] order.
func (r ResultRow) Values() []string {
	return []string{r.Title, r.Label, r.Genre, r.RRP, r.NumCopies}
}

// ResultSet is the ordered sequence of rows produced for one request.
//
// Order is whatever the executor returns; callers must not depend on it.
type ResultSet []ResultRow

// EmptyResultSet returns a non-nil result set with no rows.
func EmptyResultSet() ResultSet {
	return ResultSet{}
}

// Package models defines the value types that flow through the record lookup pipeline.
//
// The package contains two categories of types:
//
// 1. Wire values: produced and consumed once per connection
//   - [Request] : the two search terms decoded from a request frame
//   - [ResultRow] : one record available at a matching shop, with its copy count
//   - [ResultSet] : the ordered rows returned for one request
//
// 2. Seed entities: rows of the backing relations, used to populate a database
//   - [Artist], [RecordShop], [Record], [RecordCopy]
//   - [Seed] : a TOML fixture bundling all four
//
// Nothing in this package is shared between connections; values are passed by return, never held globally.
package models

// Package repositories implements the query executor adapter over database/sql.
//
// [RecordRepository] answers availability lookups with a single grouped SELECT across the artist, record,
// recordcopy and recordshop relations. Search terms are always bound parameters; the query text is fixed
// at construction and only its placeholder style varies by [shared.Dialect] (sqlite3, mysql, postgres).
//
// Each lookup acquires a dedicated [sql.Conn] and releases it before returning. Configure the pool with
// no idle connections to get one executor connection per lookup, opened and closed by the caller's request.
//
// [RecordRepository.Seed] writes a [models.Seed] fixture in one transaction for setup and tests.
package repositories

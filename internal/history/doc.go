// Package history persists a ledger of project runs in SQLite.
//
// Each run gets a row in runs, and every activity it executed gets a row in
// activity_results. The schema is embedded and versioned; a version mismatch
// is reported as ErrSchemaMismatch and the database must be removed to adopt
// the new schema. `mediaflow history` reads the ledger back.
package history

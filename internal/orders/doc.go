// Package orders persists imagery orders in SQLite and models their
// lifecycle.
//
// The Store manages database connections, schema initialization, dedup
// lookups by acquisition window, batch summaries, stats queries, and status
// transitions that mirror the order state machine. Orders capture the AOI,
// window, bundle choices, scene counts, and quota usage so submissions can
// be resumed, polled, and reported without re-querying the imagery API.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package orders

// Package sqldb implements a connector for SQLite tables through
// database/sql and the linked-in sqlite driver. Other drivers are rejected
// because change tracking relies on SQLite triggers.
//
// New rows are read in primary key order. Updated rows are read from a
// changelog table that Bootstrap creates next to the source table and that
// an update trigger fills. The cursor carries both watermarks.
package sqldb

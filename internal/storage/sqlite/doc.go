// Package sqlite contains the SQLite repository for merge run history.
//
// All database read/write operations for recorded merges belong here
// rather than in the grid packages. This keeps the merge pipeline free
// of SQL noise and makes it easy to run without a database at all.
package sqlite

// Package database provides the SQLite case database of fileingest.
//
// The CaseDB stores:
//   - data sources and the files enumerated from them, with their hashes
//   - artifacts posted by analysis modules and their typed attributes
//   - one summary report per ingest job
//   - the module errors recorded during each job
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the case
// is a single portable file and the CGO-free driver keeps cross-compilation
// easy. A single connection serializes writes from concurrent file workers;
// database/sql makes the CaseDB safe for concurrent use.
package database

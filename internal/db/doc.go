// Package db contains the catalog data-access layer and small DI helpers
// used by QEFData.
//
// This package exposes a Store interface with three Bun-backed
// implementations (SQLite, PostgreSQL, MySQL) plus package-level helpers
// that delegate to the active store set by InitDB.
//
// DI helpers
//   - `Default*` functions return a sensible default implementation when the
//     package-level `store` has been initialized (via `InitDB`) or when a
//     package-level override has been set by tests.
//   - `SetDefault*` and `ClearDefault*` functions allow tests to inject simple
//     fakes that implement the same small interface (`DatasetSearcher`,
//     `AuditSearcher`).
//
// Testing notes
//   - Prefer `db.InitDB("sqlite", "file:test?mode=memory&cache=shared")` in
//     tests that need real DB semantics and migrations.
//   - For fast unit tests that don't need a DB, inject `FakeDatasetSearcher`
//     via `SetDefaultDatasetSearcher`.
package db

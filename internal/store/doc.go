// Package store provides SQLite-backed history of lookup table searches.
//
// Each call to generate records one run:
//   - Runs: parameters, outcome, accepted (or last) step and value type
//   - Iterations: every evaluated candidate step with its measured error
//
// # Ordering
//
// Runs are ordered by seq, a per-database counter assigned when the run is
// written. Run IDs are UUIDv7 in production and sequential in tests; neither
// wall time nor ID order is used for sorting.
//
// # Non-finite errors
//
// A measured error of +Inf (no defined grid point) is stored as NULL and read
// back as +Inf.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

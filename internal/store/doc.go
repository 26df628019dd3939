// Package store provides SQLite-backed history of validation runs.
//
// Every range check or scenario run can be recorded with its findings:
//   - runs: one row per validation call, with the canonical findings
//     snapshot
//   - findings: one row per finding, in report order
//
// # Ordering
//
// Runs list newest first (started_at, then ID). Findings keep the order the
// validator reported them in (seq ASC).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5 seconds on lock contention
//   - foreign_keys=ON: findings are deleted with their run
package store

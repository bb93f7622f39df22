// Package store provides SQLite-backed telemetry for synthesis runs.
//
// The store records:
//   - Runs: seed, chain count, step budget, the hashed seed program and
//     the search parameters
//   - Operator frequency: per-run counts of body operator kinds, the
//     export consumed by frequency-weighted sampling of later runs
//   - Candidates: accepted programs (printed and serialized) with their
//     score, idempotent per (run, program hash)
//   - Bandit decisions: the weighting arm chosen at each interval and the
//     reward it earned
//
// # Ordering
//
// Candidates and decisions are stamped with a logical seq taken from the
// search clock. Reads order by seq ASC, id ASC so repeated reads of the
// same run return identical sequences.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Program hashes are computed by ir.ProgramHash (canonical JSON, SHA-256
// with domain separation).
package store

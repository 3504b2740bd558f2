// Package store provides SQLite-backed access to the narrative data store.
//
// The store owns all persisted entities: the project hierarchy
// (project -> acts -> chapters -> scenes), characters and their per-scene
// state snapshots, world rules, and continuity alerts. The continuity
// engine is a pure function of the store's contents: it reads narrative
// state and writes alerts back, holding no persistent state of its own.
//
// # Discipline
//
//   - Append-only history: character_state_history rows are inserted, never
//     updated. Alerts are inserted and resolved, never deleted.
//   - Deterministic reads: every multi-row query carries an ORDER BY with a
//     unique tiebreaker so repeated scans see identical sequences.
//   - Idempotent writes: alert inserts use ON CONFLICT(id) DO NOTHING, so a
//     retried scan cannot double-write.
//   - Single connection: SQLite is limited to one writer; the pool is
//     capped at one open connection and each engine phase acquires it for
//     the minimal read/write batch, not for a whole scan.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store

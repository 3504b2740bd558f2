// Package continuity implements the Tier-1 continuity consistency engine.
//
// The engine is an offline, state-based checker: it reads the persisted
// narrative (scenes, character state snapshots, world rules) and surfaces
// contradictions as durable continuity alerts. It holds no state of its
// own - a scan is a pure function of the store's current contents, run
// repeatedly and idempotently.
//
// ARCHITECTURE:
//
// Single-threaded scan pipeline:
// A scan runs to completion in the calling goroutine, phase by phase:
//  1. Load scene positions, presences, rules, and snapshot history.
//  2. Extract typed attribute assertions from each snapshot.
//  3. Sequence assertions by structural narrative position.
//  4. Match world rules to assertions by keyword.
//  5. Detect conflicts (state discontinuities, rule contradictions,
//     timeline anomalies) as candidate alerts.
//  6. Record candidates through the alert lifecycle manager, which
//     deduplicates on the conflict signature.
//
// Scans for the same project are serialized by a per-project lock because
// recording reads then writes alerts non-transactionally; scans for
// different projects run in parallel.
//
// DETERMINISM:
//
// Characters, attributes, rules, and scenes are always walked in sorted
// order, and an alert's identity is a content hash over its sorted
// conflicting-element set. Re-running a scan with unchanged data therefore
// finds the same candidates with the same signatures and records nothing
// new.
//
// ERROR HANDLING:
//
// Malformed items (unparsable snapshots, scenes without act/chapter
// linkage) are skipped with a logged validation note and the scan
// continues; only store failures abort a scan. Partial progress is safe to
// retry since alert writes are individually idempotent.
package continuity

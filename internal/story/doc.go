// Package story provides the canonical domain types for the continuity engine.
//
// This package contains type definitions only. All other internal packages
// import story; story imports nothing internal. This keeps the domain model
// the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Narrative ordering is structural: (act, chapter, scene) position only.
//     Free-text time descriptions are never ordering input.
//   - Assertion history is append-only. State is an ordered log per
//     character, never a single mutable current-state cell.
//   - All JSON tags use snake_case.
package story

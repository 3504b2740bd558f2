// Package harness provides scenario-based conformance testing for the
// continuity engine.
//
// A scenario is a YAML file describing a small story world (scenes,
// characters, world rules, state snapshots) plus the alerts a scan of that
// world is expected to raise. The harness seeds an in-memory database from
// the scenario, runs a full project scan, and checks the result.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	project:
//	  id: proj-1
//	  title: Test Story
//	characters:
//	  - id: jin
//	    name: Jin
//	rules:
//	  - id: rule-1
//	    name: Magic requires mana
//	    scope: universal
//	    keywords: [magic, mana]
//	scenes:
//	  - id: s1
//	    title: Awakening
//	    act: 1
//	    chapter: 1
//	    position: 1
//	    content: "Jin wakes."
//	    time: "3 days after scene Awakening"   # optional temporal marker
//	    present: [jin]                          # active characters
//	snapshots:
//	  - character: jin
//	    scene: s1
//	    state: '{"age": "17"}'
//	policy: |                                   # optional inline CUE policy
//	  policy: {numeric_jump_percent: 50}
//	expect:
//	  alerts:
//	    - type: character_state_conflict
//	      severity: medium
//	      scene: s2
//
// # Deterministic Execution
//
// Scenarios run against an in-memory SQLite database with a fixed clock and
// sequential id generation, so the same scenario always produces
// byte-identical scan results. Golden snapshots of those results live in
// testdata/golden and are compared with goldie; regenerate with:
//
//	go test ./internal/harness -update
package harness

// Package harness runs synthesis scenarios: a seed program, a reference
// program, run parameters and assertions about the outcome, executed
// deterministically against an in-memory telemetry database.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: kb_and_from_top
//	description: "Known-bits and is reachable from the top element"
//	program: programs/kb_top.yaml      # relative to the scenario file
//	reference: programs/kb_and.yaml
//	run:                               # any run configuration field
//	  seed: 7
//	  steps: 500
//	  chains: 2
//	assertions:
//	  - type: min_score
//	    score: 0.9
//	  - type: contains_op
//	    op: or
//
// # Assertion Types
//
//   - min_score: the best candidate scores at least score
//   - contains_op: the best candidate uses operator op
//   - op_count: the best candidate uses op exactly count times
//   - max_ops: the best candidate has at most count body operations
//   - min_candidates: at least count improving candidates were recorded
//
// # Deterministic Testing
//
// Every chain draws from a source seeded by the run seed, runs are
// recorded under a fixed run id (scenario.run_id or "test-run-default"),
// and the results of concurrent chains are combined by chain index, so a
// scenario produces the same best candidate on every execution. RunWithGolden
// snapshots that candidate for golden file comparison.
package harness

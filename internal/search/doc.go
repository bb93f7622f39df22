// Package search is the outer loop around the mutation engine.
//
// An Engine drives one chain: it proposes a mutation of the candidate
// (replace one operation with a freshly sampled one of the same result
// kind, or retarget one operand of a copy), substitutes it as the pending
// mutation, scores the result with an Oracle and commits or reverts it by
// the Metropolis rule. The operator weighting in effect (uniform, prior or
// observed frequency) is an arm of a linear Thompson sampler that is
// rewarded with the score gain of each interval.
//
// RunChains runs independent chains concurrently. Each chain owns its
// program copy, catalog and random source, seeded seed+i, so a run is
// reproducible for a fixed seed regardless of scheduling. Chains share
// only the oracle, which must be safe for concurrent use, the store and
// the logical clock stamping telemetry.
package search

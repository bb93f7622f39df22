// Package catalog holds the operator catalog a synthesizer samples from:
// one bucket of allowed operator kinds per result kind, each with a
// sampling weight.
//
// The set of kinds in a bucket is fixed for a configured run. Weights
// change during a search (priors, observed frequencies, bandit-selected
// schemes) through explicit updates that bump the catalog version.
//
// Operator sets are configured by name (see Preset) or loaded from YAML,
// JSON or CUE files. Entries name an operator directly ("add",
// "transfer.add") or through the historical {op_name: add} wrapper.
package catalog

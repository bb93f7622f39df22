// Package synth samples new operations for a candidate program.
//
// A Context draws an operator kind from its catalog, then picks operands
// from pools of live values grouped by kind. Operand picks go through the
// selection heuristics: triviality predicates reject values that would
// make the operation a tautology (a zero addend, a constant boolean
// condition), and idempotence-sensitive operators never read the same
// value in both paired slots.
//
// Failure to find admissible operands is a normal outcome of constrained
// sampling and is reported as a nil operation or a false result, never as
// an error.
package synth

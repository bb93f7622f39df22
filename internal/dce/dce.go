// Package dce removes body operations whose results are never read.
package dce

import (
	"github.com/roach88/xfersynth/internal/ir"
)

// Eliminate erases, in one reverse sweep, every body operation of f whose
// result has no uses, and returns how many were erased. Leaves, make and
// return are never removed. Erasing a consumer releases its operand uses
// before its producers are visited, so one sweep reaches the fixpoint.
//
// Operations detached by a pending mutation still hold uses; run Eliminate
// only on an idle candidate.
func Eliminate(f *ir.Function) int {
	erased := 0
	for op := f.Last(); op != nil; {
		prev := op.Prev()
		if op.Kind.InMainBody() && f.NumUses(op.Result()) == 0 {
			f.Erase(op)
			erased++
		}
		op = prev
	}
	return erased
}

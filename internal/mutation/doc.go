// Package mutation holds a candidate program under search and the single
// pending mutation applied to it.
//
// A Program moves between two states. Substitute with history recording
// moves it from Idle to Pending; Revert and Commit move it back. Calling
// them out of order is a programming error and panics with a
// *ProtocolError, as does a candidate whose tail no longer has the
// terminator shape.
//
// Liveness is computed fresh on every LiveOperations call by one backward
// pass from the terminator.
package mutation

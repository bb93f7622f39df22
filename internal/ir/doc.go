// Package ir provides the in-memory representation of candidate transfer
// functions: straight-line SSA programs over bit-vector and boolean values.
//
// All other internal packages import ir; ir imports nothing internal. This
// keeps the IR the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Operator kinds form a closed enumeration with a static descriptor
//     table (arity, operand kinds, result kind, class). No type switches on
//     operation structs.
//   - SSA values are indices into an arena owned by a Function. Every value
//     carries its owner and an explicit use list which is updated on every
//     operand change, substitution and erase.
//   - Program order is def-before-use. Operations are kept in an intrusive
//     doubly linked list so insert-before and detach are O(1).
//   - Leaves (constants, bit width, all-ones, field accessors) carry no
//     operands; the bit width of a candidate is a property of evaluation,
//     not of the program.
package ir
